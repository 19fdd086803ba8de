package gitobj

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"
)

// ExtraHeader is a commit header field other than tree/parent/author/
// committer, e.g. "gpgsig" or "encoding", preserved verbatim in both key and
// value so commits round-trip byte-for-byte.
type ExtraHeader struct {
	K string
	V string
}

// Commit represents a Git commit object.
type Commit struct {
	Author    string
	Committer string

	ParentIDs    [][]byte
	TreeID       []byte
	ExtraHeaders []*ExtraHeader

	Message string
}

// Type implements Object.Type.
func (c *Commit) Type() ObjectType { return CommitObjectType }

// Decode implements Object.Decode. Header fields may appear in any order;
// any header line other than tree/parent/author/committer is preserved as
// an ExtraHeader, and lines beginning with a single space continue the
// value of the immediately preceding ExtraHeader.
func (c *Commit) Decode(_ hash.Hash, r io.Reader, size int64) (int, error) {
	br := bufio.NewReader(io.LimitReader(r, size))

	var finishedHeaders bool
	var message strings.Builder
	var lastExtra *ExtraHeader

	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return 0, readErr
		}

		if finishedHeaders {
			message.WriteString(line)
			if readErr == io.EOF {
				break
			}
			continue
		}

		text := strings.TrimSuffix(line, "\n")
		if text == "" {
			finishedHeaders = true
			if readErr == io.EOF {
				break
			}
			continue
		}

		if strings.HasPrefix(text, " ") {
			if lastExtra != nil {
				lastExtra.V = lastExtra.V + "\n" + text[1:]
			}
			if readErr == io.EOF {
				break
			}
			continue
		}

		field, value, ok := strings.Cut(text, " ")
		switch field {
		case "tree":
			if ok {
				if sha, err := hex.DecodeString(value); err == nil {
					c.TreeID = sha
				}
			}
		case "parent":
			if ok {
				if sha, err := hex.DecodeString(value); err == nil {
					c.ParentIDs = append(c.ParentIDs, sha)
				}
			}
		case "author":
			c.Author = value
		case "committer":
			c.Committer = value
		default:
			eh := &ExtraHeader{K: field, V: value}
			c.ExtraHeaders = append(c.ExtraHeaders, eh)
			lastExtra = eh
		}

		if readErr == io.EOF {
			break
		}
	}

	c.Message = message.String()

	return int(size), nil
}

// Encode implements Object.Encode.
func (c *Commit) Encode(w io.Writer) (int, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "tree %s\n", hex.EncodeToString(c.TreeID))
	for _, parent := range c.ParentIDs {
		fmt.Fprintf(&buf, "parent %s\n", hex.EncodeToString(parent))
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author)
	fmt.Fprintf(&buf, "committer %s\n", c.Committer)

	for _, eh := range c.ExtraHeaders {
		lines := strings.Split(eh.V, "\n")
		fmt.Fprintf(&buf, "%s %s\n", eh.K, lines[0])
		for _, cont := range lines[1:] {
			fmt.Fprintf(&buf, " %s\n", cont)
		}
	}

	buf.WriteString("\n")
	buf.WriteString(c.Message)

	return w.Write(buf.Bytes())
}

// Equal returns whether the receiving and given Commits are equal, or in
// other words, whether they are represented by the same SHA-1 when saved to
// the object database.
func (c *Commit) Equal(other *Commit) bool {
	if (c == nil) != (other == nil) {
		return false
	}
	if c == nil {
		return true
	}

	if c.Author != other.Author ||
		c.Committer != other.Committer ||
		!bytes.Equal(c.TreeID, other.TreeID) ||
		c.Message != other.Message ||
		len(c.ParentIDs) != len(other.ParentIDs) ||
		len(c.ExtraHeaders) != len(other.ExtraHeaders) {
		return false
	}

	for i, p := range c.ParentIDs {
		if !bytes.Equal(p, other.ParentIDs[i]) {
			return false
		}
	}

	for i, eh := range c.ExtraHeaders {
		oeh := other.ExtraHeaders[i]
		if eh.K != oeh.K || eh.V != oeh.V {
			return false
		}
	}

	return true
}
