/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gocanvas/internal/snap"
)

func TestHeadlessGuides(t *testing.T) {
	h := NewHeadless()
	g := []snap.Guide{{Orientation: snap.Vertical, Position: 300, From: 0, To: 350}}

	h.DrawGuides(snap.DefaultStyle(), g)
	g[0].Position = 1
	assert.Equal(t, 300.0, h.Guides()[0].Position, "guides are copied")
	assert.Equal(t, snap.DefaultStyle(), h.Style())

	h.ClearGuides()
	assert.Empty(t, h.Guides())
	assert.Equal(t, 1, h.GuidesDrawn())

	h.RequestRender()
	h.RequestRender()
	assert.Equal(t, 2, h.Renders())
}
