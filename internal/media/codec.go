package media

import (
	"encoding/json"
	"strconv"

	"github.com/john-samurai/birdtag-go/internal/errors"
)

// Codec converts between a tag list and one external representation.
// All representations decode into the same strongly-typed []Tag so that tag
// logic never branches on wire shape.
type Codec interface {
	EncodeTags(tags []Tag) ([]byte, error)
	DecodeTags(data []byte) ([]Tag, error)
}

// JSONCodec is the plain list-of-objects representation used by the API and
// the record store: [{"species":"crow","count":3}].
type JSONCodec struct{}

func (JSONCodec) EncodeTags(tags []Tag) ([]byte, error) {
	if tags == nil {
		tags = []Tag{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return nil, errors.New(err).Category(errors.CategoryValidation).Component("media").Build()
	}
	return data, nil
}

func (JSONCodec) DecodeTags(data []byte) ([]Tag, error) {
	if len(data) == 0 {
		return []Tag{}, nil
	}
	var tags []Tag
	if err := json.Unmarshal(data, &tags); err != nil {
		return nil, errors.New(err).Category(errors.CategoryValidation).Component("media").Build()
	}
	for i := range tags {
		tags[i].Species = NormalizeSpecies(tags[i].Species)
	}
	return tags, nil
}

// attributeValue is one typed field of the legacy attribute-map export
// format. Strings and numbers are carried as tagged members.
type attributeValue struct {
	S string                    `json:"S,omitempty"`
	N string                    `json:"N,omitempty"`
	M map[string]attributeValue `json:"M,omitempty"`
}

// AttributeCodec handles the typed attribute-map representation found in
// legacy exports: [{"M":{"species":{"S":"crow"},"count":{"N":"3"}}}].
type AttributeCodec struct{}

func (AttributeCodec) EncodeTags(tags []Tag) ([]byte, error) {
	encoded := make([]attributeValue, 0, len(tags))
	for i := range tags {
		encoded = append(encoded, attributeValue{
			M: map[string]attributeValue{
				"species": {S: tags[i].Species},
				"count":   {N: strconv.Itoa(tags[i].Count)},
			},
		})
	}
	data, err := json.Marshal(encoded)
	if err != nil {
		return nil, errors.New(err).Category(errors.CategoryValidation).Component("media").Build()
	}
	return data, nil
}

func (AttributeCodec) DecodeTags(data []byte) ([]Tag, error) {
	if len(data) == 0 {
		return []Tag{}, nil
	}
	var encoded []attributeValue
	if err := json.Unmarshal(data, &encoded); err != nil {
		return nil, errors.New(err).Category(errors.CategoryValidation).Component("media").Build()
	}

	tags := make([]Tag, 0, len(encoded))
	for i := range encoded {
		entry := encoded[i].M
		if entry == nil {
			return nil, errors.Newf("attribute tag %d: missing map member", i).
				Category(errors.CategoryValidation).Component("media").Build()
		}
		count, err := strconv.Atoi(entry["count"].N)
		if err != nil {
			return nil, errors.Newf("attribute tag %d: bad count %q", i, entry["count"].N).
				Category(errors.CategoryValidation).Component("media").Build()
		}
		tags = append(tags, Tag{
			Species: NormalizeSpecies(entry["species"].S),
			Count:   count,
		})
	}
	return tags, nil
}
