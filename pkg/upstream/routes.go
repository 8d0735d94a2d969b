package upstream

// Service identifies one of the two backend services.
type Service string

const (
	ServiceCampus  Service = "campus"
	ServiceStudent Service = "student"
)

// Collection is an upstream REST collection.
type Collection string

const (
	Hostels         Collection = "hostels"
	Rooms           Collection = "rooms"
	Attendances     Collection = "attendances"
	Complaints      Collection = "complaints"
	MessMenus       Collection = "mess-menus"
	HealthIncidents Collection = "health"
	Visits          Collection = "visits"
	Allocations     Collection = "allocations"
	Fees            Collection = "fees"
	Students        Collection = "students"
)

var routes = map[Collection]Service{
	Hostels:         ServiceCampus,
	Rooms:           ServiceCampus,
	Attendances:     ServiceCampus,
	Complaints:      ServiceCampus,
	MessMenus:       ServiceCampus,
	HealthIncidents: ServiceCampus,
	Visits:          ServiceCampus,
	Allocations:     ServiceStudent,
	Fees:            ServiceStudent,
	Students:        ServiceStudent,
}

const loginPath = "/auth/login"

// ServiceFor reports which backend owns a collection.
func ServiceFor(c Collection) Service {
	if s, ok := routes[c]; ok {
		return s
	}
	return ServiceCampus
}

func (c Collection) path() string {
	return "/" + string(c)
}
