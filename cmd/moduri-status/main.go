// moduri-status is a command-line client for the unit's HTTP status
// resource. Run it bare for the interactive menu, or use the get/put
// subcommands directly.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vexown/Moduri/pkg/config"
	"github.com/vexown/Moduri/pkg/status"
)

var (
	flagConfig  string
	flagBaseURL string
	flagTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "moduri-status",
	Short: "Talk to the unit's status endpoint",
	Long: `moduri-status issues GET and PUT requests against the unit's
/status resource. Without a subcommand it starts an interactive menu.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, timeout, err := buildClient()
		if err != nil {
			return err
		}
		runMenu(cl, timeout, os.Stdin, os.Stdout)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current status message",
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, timeout, err := buildClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		msg, err := cl.Get(ctx)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	},
}

var putCmd = &cobra.Command{
	Use:   "put <message>",
	Short: "Replace the status message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, timeout, err := buildClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		msg, err := cl.Update(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Status updated. New message: %s\n", msg)
		return nil
	},
}

func buildClient() (*status.Client, time.Duration, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, 0, err
	}
	if flagBaseURL != "" {
		cfg.Status.BaseURL = flagBaseURL
	}
	if flagTimeout > 0 {
		cfg.Status.TimeoutMS = int(flagTimeout.Milliseconds())
	}
	timeout := time.Duration(cfg.Status.TimeoutMS) * time.Millisecond
	return status.NewClient(cfg.Status), timeout, nil
}

// runMenu drives the interactive menu until the operator exits or input
// ends.
func runMenu(cl *status.Client, timeout time.Duration, in io.Reader, out io.Writer) {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprintln(out, strings.Repeat("=", 40))
		fmt.Fprintln(out, " Moduri Status Communicator")
		fmt.Fprintln(out, strings.Repeat("=", 40))
		fmt.Fprintln(out, "1. Get Status")
		fmt.Fprintln(out, "2. Update Status")
		fmt.Fprintln(out, "3. Exit")
		fmt.Fprint(out, "\nEnter your choice: ")

		if !sc.Scan() {
			return
		}
		switch strings.TrimSpace(sc.Text()) {
		case "1":
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			msg, err := cl.Get(ctx)
			cancel()
			if err != nil {
				fmt.Fprintf(out, "\n[Status] Error getting status: %v\n\n", err)
			} else {
				fmt.Fprintf(out, "\n[Status] Current message: %s\n\n", msg)
			}
		case "2":
			fmt.Fprint(out, "Enter the new message: ")
			if !sc.Scan() {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			msg, err := cl.Update(ctx, sc.Text())
			cancel()
			if err != nil {
				fmt.Fprintf(out, "\n[Status] Error updating status: %v\n\n", err)
			} else {
				fmt.Fprintf(out, "\n[Status] Status updated. New message: %s\n\n", msg)
			}
		case "3":
			return
		default:
			fmt.Fprintln(out, "\n[Status] Invalid choice. Please try again.")
		}
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "API base URL override, e.g. http://192.168.4.1/api/v1")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "request timeout override, e.g. 5s")
	rootCmd.AddCommand(getCmd, putCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
