package pack

import "fmt"

// UnsupportedVersionErr is returned when a packfile or index declares a
// version this package does not know how to read.
type UnsupportedVersionErr struct {
	Got int
}

func (u *UnsupportedVersionErr) Error() string {
	return fmt.Sprintf("git/object/pack:: unsupported version: %d", u.Got)
}
