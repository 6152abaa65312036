package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jrsteele09/go-quiz-session/quizapi"
	"github.com/jrsteele09/go-quiz-session/token"
	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var username, password, googleToken string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long: `Sign in with a username and password, or with a Google ID token.

The password is read from stdin when --password is not given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				user *quizapi.User
				err  error
			)
			if googleToken != "" {
				user, err = a.session.API().LoginWithGoogle(cmd.Context(), googleToken)
			} else {
				if username == "" {
					return errors.New("--username or --google-token is required")
				}
				if password == "" {
					password, err = readLine(cmd.InOrStdin(), cmd.OutOrStdout(), "Password: ")
					if err != nil {
						return err
					}
				}
				user, err = a.session.API().Login(cmd.Context(), username, password)
			}
			if err != nil {
				return err
			}

			name := username
			if user != nil {
				name = user.Username
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	cmd.Flags().StringVar(&googleToken, "google-token", "", "Google ID token to sign in with")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var req quizapi.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.session.API().Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s, run quizctl login to sign in\n", user.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "Account username")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "Account password")
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "Contact email")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session in every quizctl process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.session.API().Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := a.session.API().Profile(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>\n", profile.User.Username, profile.User.Email)
			if profile.User.IsPremium {
				fmt.Fprintln(out, "Premium member")
			}
			fmt.Fprintf(out, "%d quiz results\n", len(profile.QuizResults))
			return nil
		},
	}
}

func newQuizzesCmd(a *app) *cobra.Command {
	var filter quizapi.QuizFilter

	cmd := &cobra.Command{
		Use:   "quizzes",
		Short: "List available quizzes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			quizzes, err := a.session.API().ListQuizzes(cmd.Context(), filter)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tTIME\tTITLE")
			for _, q := range quizzes {
				limit := "-"
				if q.TimeLimit > 0 {
					limit = fmt.Sprintf("%dm", q.TimeLimit)
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", q.ID, q.QuizType, limit, q.Title)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&filter.Type, "type", "t", "", "Quiz type code (NUM, VER, GEN, ANA, CLE)")
	cmd.Flags().BoolVar(&filter.TimedOnly, "timed", false, "Only list timed quizzes")
	return cmd
}

func newQuizCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "quiz <id>",
		Short: "Show a quiz with its questions and choice ids",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid quiz id %q", args[0])
			}
			quiz, err := a.session.API().GetQuiz(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n%s\n", quiz.Title, quiz.Description)
			for _, p := range quiz.Passages {
				fmt.Fprintf(out, "\n[%s]\n%s\n", p.Title, p.Text)
				printQuestions(out, p.Questions)
			}
			printQuestions(out, quiz.Questions)
			return nil
		},
	}
}

func printQuestions(out io.Writer, questions []quizapi.Question) {
	for _, q := range questions {
		fmt.Fprintf(out, "\n%d. %s\n", q.ID, q.Text)
		for _, c := range q.Choices {
			fmt.Fprintf(out, "   %d) %s\n", c.ID, c.Text)
		}
	}
}

func newSubmitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <quiz-id> <question=choice>...",
		Short: "Submit answers for scoring",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			quizID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid quiz id %q", args[0])
			}
			answers, err := parseAnswers(args[1:])
			if err != nil {
				return err
			}

			result, err := a.session.API().SubmitQuiz(cmd.Context(), quizapi.SubmitRequest{QuizID: quizID, Answers: answers})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Score: %.2f%% of %d questions\n", result.Score, result.TotalQuestions)
			return nil
		},
	}
}

// parseAnswers reads question=choice pairs
func parseAnswers(args []string) (map[string]int, error) {
	answers := make(map[string]int, len(args))
	for _, arg := range args {
		question, choice, ok := strings.Cut(arg, "=")
		if !ok || question == "" {
			return nil, fmt.Errorf("answer %q must be question=choice", arg)
		}
		if _, err := strconv.Atoi(question); err != nil {
			return nil, fmt.Errorf("invalid question id in %q", arg)
		}
		choiceID, err := strconv.Atoi(choice)
		if err != nil {
			return nil, fmt.Errorf("invalid choice id in %q", arg)
		}
		answers[question] = choiceID
	}
	return answers, nil
}

func newResultsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "results",
		Short: "List your quiz results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := a.session.API().ListResults(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tQUIZ\tSCORE\tTAKEN")
			for _, r := range results {
				fmt.Fprintf(tw, "%d\t%d\t%.2f%%\t%s\n", r.ID, r.Quiz, r.Score, r.DateTaken.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
}

func newPremiumCmd(a *app) *cobra.Command {
	var activate bool

	cmd := &cobra.Command{
		Use:   "premium",
		Short: "Show or activate a premium subscription",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				status *quizapi.PremiumStatus
				err    error
			)
			if activate {
				status, err = a.session.API().ActivatePremium(cmd.Context())
			} else {
				status, err = a.session.API().PremiumStatus(cmd.Context())
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !status.IsPremium {
				fmt.Fprintln(out, "Not a premium member")
				return nil
			}
			until := "no end date"
			if status.PremiumUntil != nil {
				until = "until " + status.PremiumUntil.Local().Format(time.DateOnly)
			}
			fmt.Fprintf(out, "Premium %s\n", until)
			return nil
		},
	}
	cmd.Flags().BoolVar(&activate, "activate", false, "Start or extend premium for 30 days")
	return cmd
}

func newTokenCmd(a *app) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print the current access credential, refreshing it if stale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := a.session.TokenSource(cmd.Context()).Token()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if raw {
				fmt.Fprintln(out, tok.AccessToken)
				return nil
			}
			exp, err := token.ExpiresAt(tok.AccessToken)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s token, expires %s (in %s)\n", tok.Type(), exp.Local().Format(time.DateTime),
				a.session.Inspector().RemainingLifetime().Round(time.Second))
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print only the encoded credential")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Wait until the session is ended by another quizctl process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.session.LoggedIn() {
				return quizapi.ErrNotAuthenticated
			}

			ended := make(chan string, 1)
			a.nav.OnNavigate(func(from, to string) {
				select {
				case ended <- to:
				default:
				}
			})
			if err := a.repo.Watch(cmd.Context(), a.bus); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s\n", a.repo.Path())
			select {
			case to := <-ended:
				fmt.Fprintf(cmd.OutOrStdout(), "Session ended, moved to %s\n", to)
				return nil
			case <-cmd.Context().Done():
				return nil
			}
		},
	}
}

func readLine(in io.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error reading input: %w", err)
	}
	return "", errors.New("no input")
}
