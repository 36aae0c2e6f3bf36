package cart

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// EncodeSnapshot serializes a cart state for the snapshot store. Prices are
// written as strings so the decimal representation survives the round trip
// exactly.
func EncodeSnapshot(s State) []byte {
	var e jx.Encoder
	e.ObjStart()
	if s.CouponCode != "" {
		e.FieldStart("couponCode")
		e.Str(s.CouponCode)
	}
	e.FieldStart("lines")
	e.ArrStart()
	for _, line := range s.Lines {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(line.ProductID)
		e.FieldStart("size")
		e.Str(line.Size)
		e.FieldStart("color")
		e.Str(line.Color)
		e.FieldStart("quantity")
		e.Int(line.Quantity)
		e.FieldStart("unitPrice")
		e.Str(line.UnitPrice.String())
		e.FieldStart("name")
		e.Str(line.Name)
		e.FieldStart("image")
		e.Str(line.Image)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
	return e.Bytes()
}

// DecodeSnapshot parses a serialized cart state.
func DecodeSnapshot(data []byte) (State, error) {
	var s State
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "couponCode":
			v, err := d.Str()
			if err != nil {
				return err
			}
			s.CouponCode = v
			return nil
		case "lines":
			return d.Arr(func(d *jx.Decoder) error {
				line, err := decodeLine(d)
				if err != nil {
					return err
				}
				s.Lines = append(s.Lines, line)
				return nil
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return State{}, errors.Wrap(err, "decode cart snapshot")
	}
	return s, nil
}

func decodeLine(d *jx.Decoder) (Line, error) {
	var line Line
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "productId":
			v, err := d.Str()
			line.ProductID = v
			return err
		case "size":
			v, err := d.Str()
			line.Size = v
			return err
		case "color":
			v, err := d.Str()
			line.Color = v
			return err
		case "quantity":
			v, err := d.Int()
			line.Quantity = v
			return err
		case "unitPrice":
			raw, err := d.Str()
			if err != nil {
				return err
			}
			price, err := decimal.NewFromString(raw)
			if err != nil {
				return errors.Wrap(err, "parse unit price")
			}
			line.UnitPrice = price
			return nil
		case "name":
			v, err := d.Str()
			line.Name = v
			return err
		case "image":
			v, err := d.Str()
			line.Image = v
			return err
		default:
			return d.Skip()
		}
	})
	return line, err
}
