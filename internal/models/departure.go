package models

// TripDeparture is one scheduled trip leaving a stop on a service day
type TripDeparture struct {
	TripID             string `json:"tripId" dynamodbav:"tripId"`
	ServiceDayStart    int64  `json:"serviceDayStart" dynamodbav:"serviceDayStart"`       // epoch seconds
	ScheduledDeparture int64  `json:"scheduledDeparture" dynamodbav:"scheduledDeparture"` // seconds after service day start
}

// Departure returns the absolute departure time in epoch seconds
func (t TripDeparture) Departure() int64 {
	return t.ServiceDayStart + t.ScheduledDeparture
}

// ScheduledPattern groups the trips of one line shape serving a stop
type ScheduledPattern struct {
	Descriptor string          `json:"descriptor" dynamodbav:"descriptor"`
	Trips      []TripDeparture `json:"trips" dynamodbav:"trips"` // ordered by scheduled departure
}

// LineDeparture is the next departure of one line at one stop
type LineDeparture struct {
	Line      string `json:"line"`
	Departure int64  `json:"departure"`
	Formatted string `json:"formatted"`
}

// NextDepartureResult lists the next departure per line at one stop
type NextDepartureResult struct {
	Lat         float64           `json:"lat"`
	Lng         float64           `json:"lng"`
	StopName    string            `json:"stopName"`
	LineAndTime map[string]string `json:"lineAndTime"`
}

// NextDepartureResponse is either an error or a (possibly empty) result list
type NextDepartureResponse struct {
	Error             string                `json:"error,omitempty"`
	RequestParameters map[string]string     `json:"requestParameters"`
	Results           []NextDepartureResult `json:"results"`
	Count             int                   `json:"count"`
}

// NewNextDepartureResponse creates an empty, successful response
func NewNextDepartureResponse(params map[string]string) *NextDepartureResponse {
	if params == nil {
		params = map[string]string{}
	}
	return &NextDepartureResponse{
		RequestParameters: params,
		Results:           []NextDepartureResult{},
	}
}

// AddResult appends a result and keeps Count in step
func (r *NextDepartureResponse) AddResult(result NextDepartureResult) {
	r.Results = append(r.Results, result)
	r.Count = len(r.Results)
}

// Fail turns the response into an error response with no results
func (r *NextDepartureResponse) Fail(message string) {
	r.Error = message
	r.Results = nil
	r.Count = 0
}

// Failed reports whether the response carries an error
func (r *NextDepartureResponse) Failed() bool {
	return r.Error != ""
}
