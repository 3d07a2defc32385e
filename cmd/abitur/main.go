// Command abitur is a small CLI for the exam generation API: log in,
// request an exam and watch it until the content is ready.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/abiturprep/abitur-backend/pkg/client"
)

var (
	serverURL string
	token     string
)

func main() {
	root := &cobra.Command{
		Use:           "abitur",
		Short:         "Client for the AbiturPrep exam generation API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&serverURL, "server", envOr("ABITUR_SERVER", "http://localhost:8080"), "API base URL")
	root.PersistentFlags().StringVar(&token, "token", os.Getenv("ABITUR_TOKEN"), "JWT (defaults to $ABITUR_TOKEN)")

	root.AddCommand(loginCmd(), generateCmd(), watchCmd(), historyCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newClient() *client.Client {
	c := client.New(serverURL)
	if token != "" {
		c.SetToken(token)
	}
	return c
}

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Log in and print a token for $ABITUR_TOKEN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(os.Stderr, "Password: ")
			password, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				// Not a terminal (e.g. piped input); read a line instead.
				line, readErr := bufio.NewReader(os.Stdin).ReadString('\n')
				if readErr != nil {
					return fmt.Errorf("read password: %w", readErr)
				}
				password = []byte(strings.TrimRight(line, "\r\n"))
			}

			c := newClient()
			if err := c.Login(cmd.Context(), args[0], string(password)); err != nil {
				return err
			}

			fmt.Fprintln(os.Stderr, "Logged in. Export the token:")
			fmt.Printf("export ABITUR_TOKEN=%s\n", c.Token())
			return nil
		},
	}
}

func generateCmd() *cobra.Command {
	var (
		subject    string
		difficulty string
		watch      bool
	)

	var output string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Request a new exam and print its hexcode",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			hexCode, err := c.GenerateExam(cmd.Context(), subject, difficulty)
			if err != nil {
				return err
			}

			fmt.Println(hexCode)
			if !watch {
				fmt.Fprintf(os.Stderr, "Poll with: abitur watch %s\n", hexCode)
				return nil
			}
			return watchExam(cmd.Context(), c, hexCode, output)
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Mathematik, Deutsch or Englisch (default Mathematik)")
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "Grundkurs or Leistungskurs (default Grundkurs)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Wait for the exam and print its content")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the exam HTML to a file instead of stdout")
	return cmd
}

func watchCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "watch <hexcode>",
		Short: "Poll an exam until it is ready and print its content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchExam(cmd.Context(), newClient(), args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the exam HTML to a file instead of stdout")
	return cmd
}

func watchExam(ctx context.Context, c *client.Client, hexCode, output string) error {
	poller := client.NewPoller(c, client.PollerConfig{
		OnUpdate: func(snap client.Snapshot) {
			fmt.Fprintf(os.Stderr, "%s %s\n", time.Now().Format("15:04:05"), snap.State)
		},
	})

	snap, err := poller.Run(ctx, hexCode)
	if err != nil {
		return err
	}

	if snap.State == client.StateError {
		if snap.Exam != nil && snap.Exam.ErrorMessage != nil {
			return fmt.Errorf("generation failed: %s", *snap.Exam.ErrorMessage)
		}
		return fmt.Errorf("generation failed")
	}

	if output != "" {
		if err := os.WriteFile(output, []byte(snap.Exam.Content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
		fmt.Fprintf(os.Stderr, "Exam written to %s\n", output)
		return nil
	}

	fmt.Println(snap.Exam.Content)
	return nil
}

func historyCmd() *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List your exams, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			exams, total, err := newClient().ListExams(cmd.Context(), page, 10)
			if err != nil {
				return err
			}

			fmt.Printf("%-10s %-12s %-14s %-12s %s\n", "HEXCODE", "SUBJECT", "DIFFICULTY", "STATUS", "CREATED")
			for _, exam := range exams {
				fmt.Printf("%-10s %-12s %-14s %-12s %s\n",
					exam.HexCode, exam.Subject, exam.Difficulty, exam.Status,
					exam.CreatedAt.Format("2006-01-02 15:04"))
			}
			fmt.Fprintf(os.Stderr, "%d exam(s) total\n", total)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page of history to show")
	return cmd
}
