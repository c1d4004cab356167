/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

// SnapshotVersion is written into every encoded scene.
const SnapshotVersion = 1

// ErrInvalidSnapshot wraps every decode or validation failure.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

//go:embed snapshot.schema.json
var snapshotSchema []byte

var schemaLoader = gojsonschema.NewBytesLoader(snapshotSchema)

type document struct {
	Version int       `json:"version"`
	Objects []*Object `json:"objects"`
}

type wireObject struct {
	Kind Kind `json:"kind"`
	Base
	Shape *Shape `json:"shape,omitempty"`
	Text  *Text  `json:"text,omitempty"`
	Image *Image `json:"image,omitempty"`
	Group *Group `json:"group,omitempty"`
}

func (o *Object) MarshalJSON() ([]byte, error) {
	w := wireObject{Kind: o.Kind(), Base: o.Base}
	switch v := o.Variant.(type) {
	case *Shape:
		w.Shape = v
	case *Text:
		w.Text = v
	case *Image:
		w.Image = v
	case *Group:
		w.Group = v
	default:
		return nil, fmt.Errorf("object %s has no variant", o.ID)
	}
	return json.Marshal(w)
}

func (o *Object) UnmarshalJSON(b []byte) error {
	var w wireObject
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	o.Base = w.Base
	switch {
	case w.Kind == KindShape && w.Shape != nil:
		o.Variant = w.Shape
	case w.Kind == KindText && w.Text != nil:
		o.Variant = w.Text
	case w.Kind == KindImage && w.Image != nil:
		o.Variant = w.Image
	case w.Kind == KindGroup && w.Group != nil:
		o.Variant = w.Group
	default:
		return fmt.Errorf("%w: object %s kind %q without matching payload", ErrInvalidSnapshot, w.ID, w.Kind)
	}
	return nil
}

// Encode serializes the object list. Output is deterministic for equal scenes,
// which history relies on for duplicate detection.
func Encode(objs []*Object) ([]byte, error) {
	if objs == nil {
		objs = []*Object{}
	}
	b, err := json.Marshal(document{Version: SnapshotVersion, Objects: objs})
	if err != nil {
		return nil, fmt.Errorf("encode scene: %w", err)
	}
	return b, nil
}

// Decode parses a blob produced by Encode. Bitmaps are not decoded here.
func Decode(b []byte) ([]*Object, error) {
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if doc.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, doc.Version)
	}
	seen := make(map[ID]bool, len(doc.Objects))
	for _, o := range doc.Objects {
		if o == nil || o.ID == "" {
			return nil, fmt.Errorf("%w: object without id", ErrInvalidSnapshot)
		}
		if seen[o.ID] {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidSnapshot, o.ID)
		}
		seen[o.ID] = true
	}
	return doc.Objects, nil
}

// ValidateSnapshot checks a blob from outside the process (storage, scripts)
// against the snapshot JSON schema.
func ValidateSnapshot(b []byte) error {
	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(b))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidSnapshot, strings.Join(msgs, "; "))
	}
	return nil
}
