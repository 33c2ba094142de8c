package response_models

// Shapes returned by the travel tools. They are JSON encoded straight into the
// agent conversation.

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type City struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

func (c City) LatLng() LatLng { return LatLng{Lat: c.Lat, Lng: c.Lng} }

type Route struct {
	DistanceMeters  int64  `json:"distance_meters"`
	DurationMinutes int    `json:"duration_minutes"`
	Polyline        string `json:"polyline"`
}

type IntermediateCity struct {
	Name                       string  `json:"name"`
	Lat                        float64 `json:"lat"`
	Lng                        float64 `json:"lng"`
	DistanceFromOriginKm       float64 `json:"distance_from_origin_km"`
	EstimatedTravelTimeMinutes int     `json:"estimated_travel_time_minutes"`
	EstimatedDetourMinutes     int     `json:"estimated_detour_minutes"`
}

type CitiesBetween struct {
	Origin               City               `json:"origin"`
	Destination          City               `json:"destination"`
	IntermediateCities   []IntermediateCity `json:"intermediate_cities"`
	TotalDistanceKm      float64            `json:"total_distance_km"`
	TotalDurationMinutes int                `json:"total_duration_minutes"`
}

type OpeningHours struct {
	OpenNow     bool     `json:"open_now"`
	WeekdayText []string `json:"weekday_text"`
}

type PointOfInterest struct {
	Name             string        `json:"name"`
	PlaceID          string        `json:"place_id"`
	Category         string        `json:"category"`
	Address          string        `json:"address"`
	Location         LatLng        `json:"location"`
	Rating           float64       `json:"rating"`
	UserRatingsTotal int64         `json:"user_ratings_total"`
	PriceLevel       string        `json:"price_level"`
	OpeningHours     *OpeningHours `json:"opening_hours"`
	Photos           []string      `json:"photos"`
	Description      string        `json:"description"`
}

type PointsOfInterest struct {
	City             string            `json:"city"`
	Location         LatLng            `json:"location"`
	PointsOfInterest []PointOfInterest `json:"points_of_interest"`
}

type HotelOffer struct {
	HotelID       string   `json:"hotel_id,omitempty"`
	Name          string   `json:"name"`
	CityCode      string   `json:"city_code"`
	PricePerNight float64  `json:"price_per_night"`
	Total         float64  `json:"total"`
	Currency      string   `json:"currency"`
	Nights        int      `json:"nights"`
	Guests        int      `json:"guests"`
	RoomType      string   `json:"room_type,omitempty"`
	BedType       string   `json:"bed_type,omitempty"`
	Amenities     []string `json:"amenities,omitempty"`
	Rating        string   `json:"rating,omitempty"`
	Address       string   `json:"address,omitempty"`
}

type HotelSearch struct {
	CityCode string       `json:"city_code"`
	CheckIn  string       `json:"check_in"`
	CheckOut string       `json:"check_out"`
	Source   string       `json:"source"`
	Hotels   []HotelOffer `json:"hotels"`
}

type FlightEndpoint struct {
	Airport  string `json:"airport"`
	Terminal string `json:"terminal"`
	Time     string `json:"time"`
}

type FlightSegment struct {
	Departure    FlightEndpoint `json:"departure"`
	Arrival      FlightEndpoint `json:"arrival"`
	Carrier      string         `json:"carrier"`
	FlightNumber string         `json:"flight_number"`
	Aircraft     string         `json:"aircraft"`
	Duration     string         `json:"duration"`
	CabinClass   string         `json:"cabin_class"`
}

type FlightItinerary struct {
	Segments      []FlightSegment `json:"segments"`
	TotalDuration string          `json:"total_duration"`
}

type FlightOffer struct {
	ID             string           `json:"id"`
	Type           string           `json:"type"`
	Airline        string           `json:"airline"`
	PricePerPerson float64          `json:"price_per_person"`
	Total          float64          `json:"total"`
	Currency       string           `json:"currency"`
	TravelClass    string           `json:"travel_class"`
	NonStop        bool             `json:"non_stop"`
	NumberOfStops  int              `json:"number_of_stops"`
	SeatsAvailable int              `json:"seats_available,omitempty"`
	Outbound       *FlightItinerary `json:"outbound,omitempty"`
	Return         *FlightItinerary `json:"return,omitempty"`
}

type FlightSearch struct {
	Origin        string        `json:"origin"`
	Destination   string        `json:"destination"`
	DepartureDate string        `json:"departure_date"`
	ReturnDate    string        `json:"return_date,omitempty"`
	Source        string        `json:"source"`
	Flights       []FlightOffer `json:"flights"`
}

type CurrencyConversion struct {
	Amount    float64 `json:"amount"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Rate      float64 `json:"rate"`
	Converted float64 `json:"converted"`
	AsOf      string  `json:"as_of,omitempty"`
}

type TransitLeg struct {
	From string `json:"from"`
	To   string `json:"to"`
	Mode string `json:"mode"`
}

type TransitRoute struct {
	Start    string       `json:"start"`
	End      string       `json:"end"`
	Strategy string       `json:"strategy"`
	Path     []string     `json:"path"`
	Legs     []TransitLeg `json:"legs"`
	Cost     int          `json:"cost"`
}
