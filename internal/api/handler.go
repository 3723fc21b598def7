package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/bbernstein/nextdeparture/internal/departure"
	"github.com/bbernstein/nextdeparture/internal/models"
)

// Query parameters of the next departure endpoint
const (
	ParamLat        = "lat"
	ParamLon        = "lon"
	ParamBuffer     = "buffer"
	ParamTime       = "time"
	ParamTimeOffset = "timeOffset"
	ParamLineNumber = "lineNumber"
)

// Bounds of the numeric time parameters
const (
	MaxOffsetMinutes = 366 * 24 * 60
	MaxEpochSeconds  = 253402300799 // 9999-12-31T23:59:59Z
)

var searchParams = []string{ParamLat, ParamLon, ParamBuffer, ParamTime, ParamTimeOffset, ParamLineNumber}

type APIResponse struct {
	ResponseType string `json:"responseType"`
}

type ErrorResponse struct {
	APIResponse
	Error string `json:"error"`
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{
		APIResponse: APIResponse{ResponseType: "error"},
		Error:       message,
	}
}

var defaultHeaders = map[string]string{
	"Content-Type":                "application/json",
	"Access-Control-Allow-Origin": "*",
}

func headers() map[string]string {
	h := make(map[string]string, len(defaultHeaders))
	for k, v := range defaultHeaders {
		h[k] = v
	}
	return h
}

// Response helpers
func Success(body interface{}) (events.APIGatewayProxyResponse, error) {
	return Respond(body, http.StatusOK)
}

// Respond encodes body with the given status
func Respond(body interface{}, statusCode int) (events.APIGatewayProxyResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return Error("Internal Server Error", http.StatusInternalServerError)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers(),
		Body:       string(jsonBody),
	}, nil
}

func Error(message string, statusCode int) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(NewErrorResponse(message))

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers(),
		Body:       string(body),
	}, nil
}

// StatusFor maps a departure search error to an HTTP status
func StatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var paramErr *departure.ParameterError
	var invalidParam *InvalidParameterError
	var invalidCoords InvalidCoordinatesError
	switch {
	case errors.As(err, &paramErr), errors.As(err, &invalidParam), errors.As(err, &invalidCoords):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Parameter parsing helpers

// ParseCoordinates reads the required lat and lon parameters
func ParseCoordinates(params map[string]string) (models.Coordinate, error) {
	latStr, hasLat := params[ParamLat]
	lonStr, hasLon := params[ParamLon]

	if !hasLat || !hasLon {
		return models.Coordinate{}, InvalidCoordinatesError{Reason: "lat and lon are required"}
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return models.Coordinate{}, InvalidCoordinatesError{Reason: "lat is not a number"}
	}

	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return models.Coordinate{}, InvalidCoordinatesError{Reason: "lon is not a number"}
	}

	coord := models.Coordinate{Latitude: lat, Longitude: lon}
	if !coord.Valid() {
		return models.Coordinate{}, InvalidCoordinatesError{}
	}

	return coord, nil
}

// ParseSearchRequest builds a search request from query parameters. A time
// that is not an epoch-seconds integer does not fail here; the request is
// marked unresolved and the search reports it.
func ParseSearchRequest(params map[string]string, now time.Time) (models.SearchRequest, error) {
	coord, err := ParseCoordinates(params)
	if err != nil {
		return models.SearchRequest{}, err
	}

	supplied := make(map[string]string)
	for _, name := range searchParams {
		if v, ok := params[name]; ok {
			supplied[name] = v
		}
	}
	opts := []models.SearchOption{models.WithParameters(supplied)}

	if v, ok := params[ParamBuffer]; ok {
		buffer, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(buffer) || math.IsInf(buffer, 0) {
			return models.SearchRequest{}, &InvalidParameterError{Name: ParamBuffer, Value: v}
		}
		opts = append(opts, models.WithRadius(buffer))
	}

	if v, ok := params[ParamTimeOffset]; ok {
		offset, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || offset < -MaxOffsetMinutes || offset > MaxOffsetMinutes {
			return models.SearchRequest{}, &InvalidParameterError{Name: ParamTimeOffset, Value: v}
		}
		opts = append(opts, models.WithOffsetMinutes(offset))
	}

	if v, ok := params[ParamTime]; ok {
		epoch, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		switch {
		case errors.Is(err, strconv.ErrRange), err == nil && (epoch < 0 || epoch > MaxEpochSeconds):
			return models.SearchRequest{}, &InvalidParameterError{Name: ParamTime, Value: v}
		case err != nil:
			opts = append(opts, models.WithUnresolvedTime())
		default:
			opts = append(opts, models.WithReferenceTime(epoch))
		}
	}

	if v, ok := params[ParamLineNumber]; ok {
		opts = append(opts, models.WithLineFilter(v))
	}

	return models.NewSearchRequest(coord, now, opts...), nil
}

type InvalidCoordinatesError struct {
	Reason string
}

func (e InvalidCoordinatesError) Error() string {
	if e.Reason != "" {
		return "Invalid coordinates: " + e.Reason
	}
	return "Invalid coordinates"
}

// InvalidParameterError is returned for a numeric parameter that does not parse
type InvalidParameterError struct {
	Name  string
	Value string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("Invalid value for %s: %q", e.Name, e.Value)
}
