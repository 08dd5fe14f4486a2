// SPDX-License-Identifier: MIT

// Package dump implements the table parsers and redirect resolver that
// turn the four MediaWiki SQL dump tables (page, redirect, linktarget,
// pagelinks) into the in-memory maps the build orchestrator needs: a
// title→id index, a collapsed redirect map, a linktarget→page index, and
// a stream of resolved (source, target) link pairs.
package dump

import (
	"bytes"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// titleCaser folds case the same way cmd/qrank-builder's formatLine does;
// stateless, safe for concurrent use by parser workers.
var titleCaser = cases.Fold()

// normalizeTitle canonicalizes a raw dump title so that the same article
// always maps to the same key regardless of incidental Unicode
// normalization-form or casing differences between dump tables. MediaWiki
// dumps store spaces as underscores; normalize those back to spaces too.
func normalizeTitle(raw []byte) string {
	folded := titleCaser.Bytes(raw)
	nfc := norm.NFC.Bytes(folded)
	return string(bytes.ReplaceAll(nfc, []byte{'_'}, []byte{' '}))
}

// unescapeSQL decodes a MySQL dump string literal's backslash escapes
// in-place-ish (the input is the bytes between the surrounding quotes, as
// captured by a table regex). Unrecognized escapes pass the escaped byte
// through verbatim, matching MySQL's own lenient behavior.
func unescapeSQL(raw []byte) []byte {
	if !bytes.Contains(raw, []byte{'\\'}) {
		return raw
	}
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i == len(raw)-1 {
			out = append(out, c)
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case 'r':
			out = append(out, '\r')
		case '0':
			out = append(out, 0)
		case 'Z':
			out = append(out, 0x1a)
		default:
			out = append(out, raw[i])
		}
	}
	return out
}
