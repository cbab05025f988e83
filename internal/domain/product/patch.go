package product

import (
	"bytes"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Patcher applies a partial update to a product DTO.
type Patcher interface {
	Apply(dto DTO) (DTO, error)
}

// PatchFunc adapts an ordinary function to the Patcher interface.
type PatchFunc func(dto DTO) (DTO, error)

// Apply calls f(dto).
func (f PatchFunc) Apply(dto DTO) (DTO, error) {
	return f(dto)
}

// JSONPatch is an RFC 6902 patch document applied to the JSON form of a DTO.
type JSONPatch struct {
	patch jsonpatch.Patch
}

var _ Patcher = (*JSONPatch)(nil)

// ParseJSONPatch decodes an RFC 6902 document. It returns an error wrapping
// ErrInvalidPatch when body is empty, null, or not a valid operation list.
func ParseJSONPatch(body []byte) (*JSONPatch, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, errors.Wrap(ErrInvalidPatch, "empty patch document")
	}
	p, err := jsonpatch.DecodePatch(trimmed)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidPatch, "decode patch: %s", err)
	}
	for i, op := range p {
		switch kind := op.Kind(); kind {
		case "add", "remove", "replace", "move", "copy", "test":
		default:
			return nil, errors.Wrapf(ErrInvalidPatch, "operation %d: unsupported op %q", i, kind)
		}
		if _, err := op.Path(); err != nil {
			return nil, errors.Wrapf(ErrInvalidPatch, "operation %d: %s", i, err)
		}
	}
	return &JSONPatch{patch: p}, nil
}

// Apply runs every operation in order against dto and decodes the result.
// The input is not modified.
func (p *JSONPatch) Apply(dto DTO) (DTO, error) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	dto.encodeFull(e)

	patched, err := p.patch.Apply(e.Bytes())
	if err != nil {
		return DTO{}, errors.Wrapf(ErrInvalidPatch, "apply patch: %s", err)
	}

	var out DTO
	if err := out.Decode(jx.DecodeBytes(patched)); err != nil {
		return DTO{}, errors.Wrapf(ErrInvalidPatch, "patched product: %s", err)
	}
	return out, nil
}

// Len returns the number of operations in the document.
func (p *JSONPatch) Len() int {
	return len(p.patch)
}
