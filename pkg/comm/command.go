package comm

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// CommandLoop reads interactive text lines from r and transmits them,
// writing prompts and send outcomes to w. It returns when the operator
// types `quit` (any case), when input reaches EOF, or when the
// communicator is stopped from elsewhere. Empty lines are skipped.
//
// Lines are pulled through a channel so a Stop from another task (or a
// signal handler) unblocks the loop promptly even while the underlying
// read is still parked; the reader goroutine drains when the process
// exits.
func (c *Communicator) CommandLoop(r io.Reader, w io.Writer) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-c.done:
				return
			}
		}
	}()

	fmt.Fprint(w, c.prompt)
	for {
		select {
		case <-c.done:
			return
		case line, ok := <-lines:
			if !ok {
				// input closed, same orderly path as `quit`
				_ = c.Stop()
				return
			}
			if line == "" {
				fmt.Fprint(w, c.prompt)
				continue
			}
			if strings.EqualFold(strings.TrimSpace(line), "quit") {
				_ = c.Stop()
				return
			}

			status, err := c.Send(line)
			switch status {
			case StatusSent:
				// the datagram console stamps each send like its receives
				if c.kind == KindDatagram {
					fmt.Fprintf(w, "[%s] Sent: %s\n", time.Now().Format(timestampLayout), line)
				} else {
					fmt.Fprintf(w, "Sent: %s\n", line)
				}
			case StatusNotConnected:
				fmt.Fprintln(w, "No client connected")
			case StatusTransientError:
				fmt.Fprintf(w, "Error sending message: %v\n", err)
			}
			fmt.Fprint(w, c.prompt)
		}
	}
}
