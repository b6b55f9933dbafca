package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const defaultSendTimeout = 30 * time.Second

func sendCmd() *cobra.Command {
	var addr string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "send <command>[,arg...]",
		Short: "Send one request to a running zwaved and print the response",
		Example: `  zwaved send getNode
  zwaved send setValue,72057594093076480,on
  zwaved send --addr 10.0.0.5:5000 ping,12,3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			reply, err := sendRequest(ctx, addr, strings.Join(args, ","))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:5000", "Socket address of the daemon")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultSendTimeout, "How long to wait for the response")
	return cmd
}

// sendRequest writes one request and returns the newline-terminated reply
// without its newline.
func sendRequest(ctx context.Context, addr, request string) (string, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if _, err := conn.Write([]byte(request)); err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading response: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
