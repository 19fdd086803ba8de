// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package diff3 provides an io.Reader-oriented three-way text merge on top
// of modules/diferenco's merge engine.
package diff3

import (
	"context"
	"io"
	"strings"

	"github.com/antgroup/vaultgit/modules/diferenco"
)

// Result is the outcome of a three-way merge.
type Result struct {
	Result    io.Reader
	Conflicts bool
}

// Merge merges a and b against their common ancestor o. When style3 is true,
// conflict hunks also include the ancestor's text (diff3 conflict style);
// otherwise conflicts are rendered in the minimized two-way style.
func Merge(a, o, b io.Reader, style3 bool, labelA, labelB string) (*Result, error) {
	ta, err := io.ReadAll(a)
	if err != nil {
		return nil, err
	}
	to, err := io.ReadAll(o)
	if err != nil {
		return nil, err
	}
	tb, err := io.ReadAll(b)
	if err != nil {
		return nil, err
	}
	style := diferenco.STYLE_DEFAULT
	if style3 {
		style = diferenco.STYLE_DIFF3
	}
	out, conflicts, err := diferenco.Merge(context.Background(), &diferenco.MergeOptions{
		TextO:  string(to),
		TextA:  string(ta),
		TextB:  string(tb),
		LabelA: labelA,
		LabelB: labelB,
		A:      diferenco.Histogram,
		Style:  style,
	})
	if err != nil {
		return nil, err
	}
	return &Result{Result: strings.NewReader(out), Conflicts: conflicts}, nil
}

// SimpleMerge merges text a and b against ancestor o and returns the merged
// text directly, labeling conflict hunks with labelO/labelA/labelB.
func SimpleMerge(ctx context.Context, o, a, b, labelO, labelA, labelB string) (string, bool, error) {
	return diferenco.DefaultMerge(ctx, o, a, b, labelO, labelA, labelB)
}
