/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package script replays YAML editing scripts against an editor session.
// It drives the same entry points a user interface would: toolbar actions,
// panel edits and render surface events.
package script

import "fmt"

// Script is a parsed editing script.
type Script struct {
	Name  string
	Steps []Step
}

// Op names one script operation.
type Op string

const (
	OpAdd          Op = "add"
	OpSelect       Op = "select"
	OpSet          Op = "set"
	OpDims         Op = "dims"
	OpRotate       Op = "rotate"
	OpReorder      Op = "reorder"
	OpLayerMove    Op = "layer_move"
	OpDrag         Op = "drag"
	OpDelete       Op = "delete"
	OpUndo         Op = "undo"
	OpRedo         Op = "redo"
	OpReplaceImage Op = "replace_image"
	OpLoad         Op = "load"
)

var knownOps = map[Op]bool{
	OpAdd: true, OpSelect: true, OpSet: true, OpDims: true, OpRotate: true,
	OpReorder: true, OpLayerMove: true, OpDrag: true, OpDelete: true,
	OpUndo: true, OpRedo: true, OpReplaceImage: true, OpLoad: true,
}

// Step is one operation with its arguments. Only the fields of Op are set.
//
//	- add: rect | circle | text | image | group
//	  as: alias        (optional, names the new object for later steps)
//	  text: "Hi"       (text)
//	  file: logo.png   (image)
//	  children: [rect, circle]  (group)
//	- select: [alias, ...]     (empty list clears)
//	- set: {key: fill, value: "#ff0000"}
//	- dims: {width: 200, height: 50}
//	- rotate: 45
//	- reorder: {from: 0, to: 2}      (internal indices, bottom first)
//	- layer_move: {from: 0, to: 1}   (panel positions, top first)
//	- drag: {target: alias, path: [[x, y], ...], abort: false}
//	- delete: selection
//	- undo: 2 / redo: 1
//	- replace_image: photo.jpg
//	- load: snapshot.json
type Step struct {
	Op     Op
	Line   int
	Column int

	Kind     string
	As       string
	Text     string
	File     string
	Children []string

	IDs    []string
	Key    string
	Value  any
	Width  float64
	Height float64
	Angle  float64
	From   int
	To     int

	Target string
	Path   [][2]float64
	Abort  bool

	Count int
}

func (s Step) String() string { return fmt.Sprintf("%s (line %d)", s.Op, s.Line) }

// Error represents a parse error with position context.
type Error struct {
	Line    int
	Column  int
	Message string
}

func (e Error) Error() string {
	if e.Line == 0 {
		return e.Message
	}
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Message)
}
