package product

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Encode writes the DTO as a JSON object. Empty strings and zero timestamps
// are omitted; price is always written.
func (s DTO) Encode(e *jx.Encoder) {
	s.encode(e, false)
}

// encodeFull writes every field, using "" for zero timestamps. Patch
// documents are applied against this form so that replace and remove
// operations can address any field.
func (s DTO) encodeFull(e *jx.Encoder) {
	s.encode(e, true)
}

func (s DTO) encode(e *jx.Encoder, full bool) {
	str := func(name, v string) {
		if v == "" && !full {
			return
		}
		e.FieldStart(name)
		e.Str(v)
	}
	ts := func(name string, t time.Time) {
		if t.IsZero() {
			if full {
				e.FieldStart(name)
				e.Str("")
			}
			return
		}
		e.FieldStart(name)
		e.Str(t.UTC().Format(time.RFC3339Nano))
	}

	e.ObjStart()
	str("id", s.ID)
	str("name", s.Name)
	str("size", s.Size)
	str("colour", s.Colour)
	e.FieldStart("price")
	e.Float64(s.Price)
	ts("created", s.Created)
	ts("lastUpdated", s.LastUpdated)
	str("hash", s.Hash)
	e.ObjEnd()
}

// Decode reads a DTO from a JSON object. Unknown fields are skipped and null
// values leave the field at its zero value.
func (s *DTO) Decode(d *jx.Decoder) error {
	if s == nil {
		return errors.New("invalid: unable to decode DTO to nil")
	}
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			err = decodeStr(d, &s.ID)
		case "name":
			err = decodeStr(d, &s.Name)
		case "size":
			err = decodeStr(d, &s.Size)
		case "colour":
			err = decodeStr(d, &s.Colour)
		case "price":
			err = decodeFloat(d, &s.Price)
		case "created":
			err = decodeTime(d, &s.Created)
		case "lastUpdated":
			err = decodeTime(d, &s.LastUpdated)
		case "hash":
			err = decodeStr(d, &s.Hash)
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode field %q", key)
		}
		return nil
	})
}

// MarshalJSON implements json.Marshaler.
func (s DTO) MarshalJSON() ([]byte, error) {
	e := jx.Encoder{}
	s.Encode(&e)
	return e.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *DTO) UnmarshalJSON(data []byte) error {
	return s.Decode(jx.DecodeBytes(data))
}

// EncodeList writes dtos as a JSON array. A nil slice is written as [].
func EncodeList(e *jx.Encoder, dtos []DTO) {
	e.ArrStart()
	for _, dto := range dtos {
		dto.Encode(e)
	}
	e.ArrEnd()
}

// DecodeList reads a JSON array of DTOs.
func DecodeList(d *jx.Decoder) ([]DTO, error) {
	var out []DTO
	if err := d.Arr(func(d *jx.Decoder) error {
		var dto DTO
		if err := dto.Decode(d); err != nil {
			return errors.Wrapf(err, "decode item %d", len(out))
		}
		out = append(out, dto)
		return nil
	}); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeStr(d *jx.Decoder, v *string) error {
	if d.Next() == jx.Null {
		*v = ""
		return d.Null()
	}
	s, err := d.Str()
	if err != nil {
		return err
	}
	*v = s
	return nil
}

func decodeFloat(d *jx.Decoder, v *float64) error {
	if d.Next() == jx.Null {
		*v = 0
		return d.Null()
	}
	f, err := d.Float64()
	if err != nil {
		return err
	}
	*v = f
	return nil
}

func decodeTime(d *jx.Decoder, v *time.Time) error {
	if d.Next() == jx.Null {
		*v = time.Time{}
		return d.Null()
	}
	s, err := d.Str()
	if err != nil {
		return err
	}
	if s == "" {
		*v = time.Time{}
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	*v = t.UTC()
	return nil
}
