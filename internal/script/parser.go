/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var addKinds = map[string]bool{"rect": true, "circle": true, "text": true, "image": true, "group": true}

// Parse parses a YAML script. The document is either a list of steps or a
// mapping with "name" and "steps". Every malformed step yields an Error
// carrying its position; well-formed steps are still returned.
func Parse(data []byte) (Script, []Error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Script{}, []Error{{Message: err.Error()}}
	}
	if len(root.Content) == 0 {
		return Script{}, nil
	}
	var (
		sc   Script
		errs []Error
	)
	doc := root.Content[0]
	steps := doc
	if doc.Kind == yaml.MappingNode {
		steps = nil
		for i := 0; i+1 < len(doc.Content); i += 2 {
			k, v := doc.Content[i], doc.Content[i+1]
			switch k.Value {
			case "name":
				sc.Name = strings.TrimSpace(v.Value)
			case "steps":
				steps = v
			default:
				errs = append(errs, errAt(k, "unknown key %q", k.Value))
			}
		}
	}
	if steps == nil || (steps.Kind == yaml.ScalarNode && steps.Tag == "!!null") {
		return sc, errs
	}
	if steps.Kind != yaml.SequenceNode {
		return sc, append(errs, errAt(steps, "steps must be a list"))
	}
	for _, n := range steps.Content {
		st, err := parseStep(n)
		if err != nil {
			errs = append(errs, *err)
			continue
		}
		sc.Steps = append(sc.Steps, st)
	}
	return sc, errs
}

func parseStep(n *yaml.Node) (Step, *Error) {
	st := Step{Line: n.Line, Column: n.Column}
	if n.Kind == yaml.ScalarNode {
		// bare "- delete" / "- undo"
		op := Op(n.Value)
		if !knownOps[op] {
			return st, errPtr(n, "unknown operation %q", n.Value)
		}
		st.Op = op
		if err := decodeArgs(&st, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null"}); err != nil {
			return st, errPtr(n, "%s: %v", op, err)
		}
		if err := validate(st); err != nil {
			return st, errPtr(n, "%s: %v", op, err)
		}
		return st, nil
	}
	if n.Kind != yaml.MappingNode {
		return st, errPtr(n, "step must be a mapping")
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		var err error
		switch k.Value {
		case "as":
			st.As = v.Value
		case "text":
			st.Text = v.Value
		case "file":
			st.File = v.Value
		case "children":
			err = v.Decode(&st.Children)
		default:
			op := Op(k.Value)
			if !knownOps[op] {
				return st, errPtr(k, "unknown operation %q", k.Value)
			}
			if st.Op != "" {
				return st, errPtr(k, "step has two operations: %s and %s", st.Op, op)
			}
			st.Op = op
			err = decodeArgs(&st, v)
		}
		if err != nil {
			return st, errPtr(v, "%s: %v", k.Value, err)
		}
	}
	if st.Op == "" {
		return st, errPtr(n, "step has no operation")
	}
	if err := validate(st); err != nil {
		return st, errPtr(n, "%s: %v", st.Op, err)
	}
	return st, nil
}

func decodeArgs(st *Step, v *yaml.Node) error {
	null := v.Kind == yaml.ScalarNode && v.Tag == "!!null"
	switch st.Op {
	case OpAdd:
		return v.Decode(&st.Kind)
	case OpSelect:
		switch {
		case null:
			st.IDs = nil
		case v.Kind == yaml.ScalarNode:
			st.IDs = []string{v.Value}
		default:
			return v.Decode(&st.IDs)
		}
	case OpSet:
		var a struct {
			Key   string `yaml:"key"`
			Value any    `yaml:"value"`
		}
		if err := v.Decode(&a); err != nil {
			return err
		}
		st.Key, st.Value = a.Key, a.Value
	case OpDims:
		var a struct {
			Width  float64 `yaml:"width"`
			Height float64 `yaml:"height"`
		}
		if err := v.Decode(&a); err != nil {
			return err
		}
		st.Width, st.Height = a.Width, a.Height
	case OpRotate:
		return v.Decode(&st.Angle)
	case OpReorder, OpLayerMove:
		var a struct {
			From int `yaml:"from"`
			To   int `yaml:"to"`
		}
		if err := v.Decode(&a); err != nil {
			return err
		}
		st.From, st.To = a.From, a.To
	case OpDrag:
		var a struct {
			Target string      `yaml:"target"`
			Path   [][]float64 `yaml:"path"`
			Abort  bool        `yaml:"abort"`
		}
		if err := v.Decode(&a); err != nil {
			return err
		}
		for _, p := range a.Path {
			if len(p) != 2 {
				return fmt.Errorf("path points need two coordinates, got %d", len(p))
			}
			st.Path = append(st.Path, [2]float64{p[0], p[1]})
		}
		st.Target, st.Abort = a.Target, a.Abort
	case OpDelete:
		// any value deletes the selection
	case OpUndo, OpRedo:
		st.Count = 1
		if !null {
			return v.Decode(&st.Count)
		}
	case OpReplaceImage, OpLoad:
		return v.Decode(&st.File)
	}
	return nil
}

func validate(st Step) error {
	switch st.Op {
	case OpAdd:
		if !addKinds[st.Kind] {
			return fmt.Errorf("unknown kind %q", st.Kind)
		}
		if st.Kind == "image" && st.File == "" {
			return fmt.Errorf("image needs a file")
		}
		for _, c := range st.Children {
			if c != "rect" && c != "circle" {
				return fmt.Errorf("group children are rect or circle, got %q", c)
			}
		}
	case OpSet:
		if st.Key == "" {
			return fmt.Errorf("missing key")
		}
	case OpDrag:
		if st.Target == "" {
			return fmt.Errorf("missing target")
		}
	case OpUndo, OpRedo:
		if st.Count < 1 {
			return fmt.Errorf("count must be at least 1")
		}
	case OpReplaceImage, OpLoad:
		if st.File == "" {
			return fmt.Errorf("missing file")
		}
	}
	return nil
}

func errAt(n *yaml.Node, format string, args ...any) Error {
	return Error{Line: n.Line, Column: n.Column, Message: fmt.Sprintf(format, args...)}
}

func errPtr(n *yaml.Node, format string, args ...any) *Error {
	e := errAt(n, format, args...)
	return &e
}
