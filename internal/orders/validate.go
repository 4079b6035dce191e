package orders

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	digitsRe = regexp.MustCompile(`^\d+$`)
	alphaRe  = regexp.MustCompile(`^[A-Za-z ]+$`)
)

// CreateOrderRequest is the checkout body.
type CreateOrderRequest struct {
	Name            string        `json:"name"`
	Email           string        `json:"email"`
	PhoneNumber     string        `json:"phoneNumber"`
	City            string        `json:"city"`
	Area            string        `json:"area"`
	Street          int           `json:"street"`
	HouseNumber     int           `json:"houseNumber"`
	NearestLandmark string        `json:"nearestLandmark"`
	Items           []string      `json:"items"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
}

// Normalize trims text fields and lower-cases the email, which is the buyer key.
func (r *CreateOrderRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	r.City = strings.TrimSpace(r.City)
	r.Area = strings.TrimSpace(r.Area)
	r.NearestLandmark = strings.TrimSpace(r.NearestLandmark)
	for i, id := range r.Items {
		id = strings.TrimSpace(id)
		if u, err := uuid.Parse(id); err == nil {
			id = u.String()
		}
		r.Items[i] = id
	}
}

func (r CreateOrderRequest) Validate() error {
	v := &ValidationError{}
	if r.Name == "" {
		v.add("name", "Name is required")
	}
	if a, err := mail.ParseAddress(r.Email); err != nil || a.Address != r.Email {
		v.add("email", "Invalid email format")
	}
	if !digitsRe.MatchString(r.PhoneNumber) {
		v.add("phoneNumber", "Phone number must contain only digits")
	}
	if !alphaRe.MatchString(r.City) {
		v.add("city", "City is required")
	}
	if !alphaRe.MatchString(r.Area) {
		v.add("area", "Area is required")
	}
	if r.Street < 1 || r.Street > 10000 {
		v.add("street", "Street number must be a number between 1 and 10000")
	}
	if r.HouseNumber < 1 || r.HouseNumber > 10000 {
		v.add("houseNumber", "House number must be a number between 1 and 10000")
	}
	if r.NearestLandmark == "" {
		v.add("nearestLandmark", "Nearest landmark must be a string")
	}
	if len(r.Items) == 0 {
		v.add("items", "Items must be an array with at least one item")
	}
	seen := make(map[string]bool, len(r.Items))
	for _, id := range r.Items {
		if _, err := uuid.Parse(id); err != nil {
			v.add("items", "Invalid product id "+id)
			continue
		}
		if seen[id] {
			v.add("items", "Duplicate product id "+id)
		}
		seen[id] = true
	}
	switch r.PaymentMethod {
	case MethodCOD, MethodSafepay:
	default:
		v.add("paymentMethod", "Payment method must be either 'cod' or 'safepay'")
	}
	return v.orNil()
}

func (r CreateOrderRequest) Buyer() Buyer {
	return Buyer{
		Name:            r.Name,
		Email:           r.Email,
		PhoneNumber:     r.PhoneNumber,
		City:            r.City,
		Area:            r.Area,
		Street:          r.Street,
		HouseNumber:     r.HouseNumber,
		NearestLandmark: r.NearestLandmark,
	}
}
