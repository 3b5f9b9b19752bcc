package remote

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"al.essio.dev/pkg/shellescape"
)

// StreamFile follows logFile on the remote host over a dedicated channel,
// copying bytes to local stdout as they arrive. Runs until the remote tail
// ends or ctx is cancelled (operator interrupt); either way the channel is
// closed before returning.
func (s *Shell) StreamFile(ctx context.Context, logFile string) error {
	if s.client == nil {
		return ErrNotConnected
	}

	fmt.Printf("\nStreaming output from %s (press Ctrl+C to stop)...\n", logFile)
	fmt.Println(strings.Repeat("=", 80))

	session, err := s.client.NewSession()
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if err := session.Start("tail -f " + shellescape.Quote(logFile)); err != nil {
		session.Close()
		return fmt.Errorf("start tail: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = io.Copy(os.Stdout, stdout)
	}()

	select {
	case <-ctx.Done():
	case <-done:
	}
	session.Close()
	<-done

	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("Stopped streaming output")
	return nil
}
