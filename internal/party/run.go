package party

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Run connects to the relay, renders everything it receives to out, and
// submits each non-blank line read from in. It returns when in is exhausted,
// ctx is done, or the relay closes the connection.
func Run(ctx context.Context, log *slog.Logger, cfg Config, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	session, err := Dial(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Debug("Error closing session", "error", err)
		}
	}()
	log.Info("Connected", "url", cfg.ServerURL, "nickname", cfg.Nickname)

	renderer := NewRenderer(out, cfg.Nickname, cfg.Colours)
	receiveErr := make(chan error, 1)
	go func() {
		receiveErr <- receiveLoop(ctx, session, renderer)
	}()

	lines := make(chan string)
	go scanLines(ctx, in, lines)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-receiveErr:
			return err
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := session.Send(ctx, line); err != nil {
				return err
			}
		}
	}
}

func receiveLoop(ctx context.Context, session *Session, renderer *Renderer) error {
	for {
		envelope, err := session.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || isNormalClosure(err) {
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		}
		if err := renderer.Render(envelope); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}
}

// scanLines forwards lines from in until it is exhausted or ctx is done,
// then closes lines.
func scanLines(ctx context.Context, in io.Reader, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
}
