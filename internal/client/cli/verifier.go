package cli

import (
	"bufio"
	"context"
	"io"
)

// TerminalVerifier is the secondary verification gesture of the terminal
// client: an explicit confirmation typed by the user.
type TerminalVerifier struct {
	reader *bufio.Reader
	out    io.Writer
}

func NewTerminalVerifier(r *bufio.Reader, w io.Writer) *TerminalVerifier {
	return &TerminalVerifier{reader: r, out: w}
}

func (v *TerminalVerifier) Verify(ctx context.Context, reason string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return GetConfirmation(v.reader, reason, v.out)
}
