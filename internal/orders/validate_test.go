package orders

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	prodA = "0b7d4f3e-6c36-4a8e-9b53-6f0c1d7e2a11"
	prodB = "5f2e8c1a-3d4b-4e6f-8a7b-9c0d1e2f3a4b"
)

func validRequest() CreateOrderRequest {
	return CreateOrderRequest{
		Name:            "Ayesha Khan",
		Email:           "ayesha@example.com",
		PhoneNumber:     "03001234567",
		City:            "Lahore",
		Area:            "Model Town",
		Street:          12,
		HouseNumber:     45,
		NearestLandmark: "Near the park",
		Items:           []string{prodA, prodB},
		PaymentMethod:   MethodSafepay,
	}
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, validRequest().Validate())
}

func TestValidate_CollectsEveryField(t *testing.T) {
	req := CreateOrderRequest{
		Email:         "nope",
		PhoneNumber:   "03-00",
		City:          "L4hore",
		Street:        0,
		HouseNumber:   10001,
		PaymentMethod: "bitcoin",
	}

	err := req.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	fields := map[string]bool{}
	for _, f := range ve.Fields {
		fields[f.Field] = true
	}
	for _, f := range []string{"name", "email", "phoneNumber", "city", "area", "street", "houseNumber", "nearestLandmark", "items", "paymentMethod"} {
		assert.True(t, fields[f], "expected error for %s", f)
	}
}

func TestValidate_Items(t *testing.T) {
	req := validRequest()
	req.Items = []string{prodA, "not-a-uuid", prodA}

	var ve *ValidationError
	require.True(t, errors.As(req.Validate(), &ve))
	require.Len(t, ve.Fields, 2)
	assert.Contains(t, ve.Fields[0].Message, "Invalid product id")
	assert.Contains(t, ve.Fields[1].Message, "Duplicate product id")
}

func TestNormalize(t *testing.T) {
	req := validRequest()
	req.Email = "  Ayesha@Example.COM "
	req.Items = []string{" " + "0B7D4F3E-6C36-4A8E-9B53-6F0C1D7E2A11" + " "}
	req.Normalize()

	assert.Equal(t, "ayesha@example.com", req.Email)
	assert.Equal(t, []string{prodA}, req.Items)
	assert.NoError(t, req.Validate())
}
