package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	s := State{
		CouponCode: "SAVE10",
		Lines: []Line{
			{
				Key:       Key{ProductID: "mn-001", Size: "M", Color: "Noir"},
				Quantity:  2,
				UnitPrice: decimal.RequireFromString("289000"),
				Name:      "Silk Charmeuse Evening Gown",
				Image:     "/images/silk-charmeuse-gown.jpg",
			},
			{
				Key:       Key{ProductID: "mn-002", Size: "L", Color: "Camel"},
				Quantity:  1,
				UnitPrice: decimal.RequireFromString("399000.50"),
			},
		},
	}

	got, err := DecodeSnapshot(EncodeSnapshot(s))
	require.NoError(t, err)

	assert.Equal(t, s.CouponCode, got.CouponCode)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, s.Lines[0].Key, got.Lines[0].Key)
	assert.Equal(t, s.Lines[0].Quantity, got.Lines[0].Quantity)
	assert.Equal(t, s.Lines[0].Name, got.Lines[0].Name)
	assert.Equal(t, s.Lines[0].Image, got.Lines[0].Image)
	assert.True(t, s.Lines[0].UnitPrice.Equal(got.Lines[0].UnitPrice))
	assert.Equal(t, "399000.5", got.Lines[1].UnitPrice.String())
}

func TestSnapshotRoundTrip_EmptyCart(t *testing.T) {
	got, err := DecodeSnapshot(EncodeSnapshot(State{}))
	require.NoError(t, err)

	assert.Empty(t, got.Lines)
	assert.Empty(t, got.CouponCode)
}

func TestDecodeSnapshot_IgnoresUnknownFields(t *testing.T) {
	data := []byte(`{"lines":[{"productId":"p1","size":"M","color":"Noir","quantity":1,"unitPrice":"100","name":"","image":"","legacy":true}],"version":3}`)

	got, err := DecodeSnapshot(data)
	require.NoError(t, err)

	require.Len(t, got.Lines, 1)
	assert.Equal(t, "p1", got.Lines[0].ProductID)
}

func TestDecodeSnapshot_Malformed(t *testing.T) {
	_, err := DecodeSnapshot([]byte(`{"lines":[`))
	assert.Error(t, err)

	_, err = DecodeSnapshot([]byte(`{"lines":[{"unitPrice":"not-a-number"}]}`))
	assert.Error(t, err)
}
