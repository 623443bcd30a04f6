package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"eduquiz-service/internal/app"
	"eduquiz-service/internal/domain"
	"eduquiz-service/internal/session"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play <quizId>",
		Short: "Play a quiz in the terminal",
		Long: `Play a quiz in the terminal.

Answer multiple choice and true/false questions with the option number, short
answer questions with text and ordering questions with the option numbers in
order (for example "3 1 2"). Press Enter to move on after each answer.`,
		Args: cobra.ExactArgs(1),
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			user, err := currentUser(cmd, d)
			if err != nil {
				return err
			}
			sess, err := d.play.Start(cmd.Context(), user, args[0])
			if err != nil {
				return err
			}
			defer d.play.Release(cmd.Context(), user.ID, sess)

			_, err = runAttempt(cmd.Context(), d.play, user, cmd.InOrStdin(), cmd.OutOrStdout())
			return err
		}),
	}
}

// runAttempt drives the user's attempt from terminal input until it
// completes, the input ends or ctx is cancelled. It returns the recorded
// outcome, or nil when the attempt was abandoned.
func runAttempt(ctx context.Context, play *app.PlayService, user domain.User, in io.Reader, out io.Writer) (*app.Outcome, error) {
	events, cancel, err := play.Subscribe(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	input := make(chan string)
	var lines <-chan string = input
	go func() {
		defer close(input)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case input <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case ev, ok := <-events:
			if !ok {
				return nil, domain.ErrSessionClosed
			}
			switch ev.Type {
			case session.EventPresented:
				printQuestion(out, ev.View)
			case session.EventTick:
				if ev.View.TimeLeft <= 5 || ev.View.TimeLeft%10 == 0 {
					fmt.Fprintf(out, "  ⏱ %ds left\n", ev.View.TimeLeft)
				}
			case session.EventRevealed:
				printReveal(out, ev.View, ev.Record)
			case session.EventComplete:
				outcome, err := play.Finish(ctx, user)
				if err != nil {
					return nil, err
				}
				printOutcome(out, outcome)
				return &outcome, nil
			case session.EventClosed:
				return nil, domain.ErrSessionClosed
			}

		case line, ok := <-lines:
			current, err := play.Current(ctx, user.ID)
			if err != nil {
				return nil, err
			}
			if !ok {
				if current.Phase == session.PhaseComplete {
					// the complete event is still queued
					lines = nil
					continue
				}
				play.Abandon(ctx, user.ID)
				fmt.Fprintln(out, "\nAttempt abandoned.")
				return nil, nil
			}
			switch current.Phase {
			case session.PhasePresenting:
				answer, err := parseAnswer(current, line)
				if err != nil {
					fmt.Fprintf(out, "  %v\n", err)
					continue
				}
				if _, err := play.Answer(ctx, user.ID, answer); err != nil && !errors.Is(err, domain.ErrQuestionLocked) {
					return nil, err
				}
			case session.PhaseRevealed:
				if _, err := play.Continue(ctx, user.ID); err != nil && !errors.Is(err, domain.ErrNotRevealed) {
					return nil, err
				}
			}
		}
	}
}

// parseAnswer reads one input line as an answer to the question in view.
// Option numbers are shown and typed 1-based.
func parseAnswer(view session.View, line string) (domain.Answer, error) {
	line = strings.TrimSpace(line)
	switch view.Type {
	case domain.QuestionShortAnswer:
		if line == "" {
			return domain.Answer{}, errors.New("type your answer")
		}
		return domain.TextAnswer(line), nil

	case domain.QuestionOrdering:
		fields := strings.FieldsFunc(line, func(r rune) bool { return r == ' ' || r == ',' })
		if len(fields) != len(view.Options) {
			return domain.Answer{}, errors.Errorf("enter all %d option numbers in order", len(view.Options))
		}
		order := make([]string, 0, len(fields))
		seen := make(map[int]bool, len(fields))
		for _, f := range fields {
			n, err := optionNumber(f, len(view.Options))
			if err != nil {
				return domain.Answer{}, err
			}
			if seen[n] {
				return domain.Answer{}, errors.Errorf("option %d used twice", n+1)
			}
			seen[n] = true
			order = append(order, view.Options[n])
		}
		return domain.OrderAnswer(order), nil

	default:
		if view.Type == domain.QuestionBoolean {
			if i, ok := matchLabel(view.Options, line); ok {
				return domain.OptionAnswer(i), nil
			}
		}
		n, err := optionNumber(line, len(view.Options))
		if err != nil {
			return domain.Answer{}, err
		}
		return domain.OptionAnswer(n), nil
	}
}

// matchLabel finds the option named by line, either in full or by its
// first letter when no other option starts with the same letter.
func matchLabel(options []string, line string) (int, bool) {
	if line == "" {
		return 0, false
	}
	for i, opt := range options {
		if opt != "" && strings.EqualFold(line, opt) {
			return i, true
		}
	}
	if utf8.RuneCountInString(line) != 1 {
		return 0, false
	}
	found := -1
	for i, opt := range options {
		first, _ := utf8.DecodeRuneInString(opt)
		if opt == "" || !strings.EqualFold(string(first), line) {
			continue
		}
		if found >= 0 {
			return 0, false
		}
		found = i
	}
	return found, found >= 0
}

func optionNumber(raw string, count int) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > count {
		return 0, errors.Errorf("choose a number between 1 and %d", count)
	}
	return n - 1, nil
}

func printQuestion(out io.Writer, v session.View) {
	fmt.Fprintf(out, "\n%s · question %d/%d · %ds · score %d\n", v.QuizTitle, v.Index+1, v.Total, v.TimeLimit, v.Score)
	fmt.Fprintf(out, "%s\n", v.Text)
	for i, opt := range v.Options {
		fmt.Fprintf(out, "  %d) %s\n", i+1, opt)
	}
	if v.Type == domain.QuestionShortAnswer {
		fmt.Fprintln(out, "  (type your answer)")
	}
}

func printReveal(out io.Writer, v session.View, rec *domain.AnswerRecord) {
	switch {
	case rec != nil && rec.TimedOut:
		fmt.Fprintln(out, "⌛ Time's up!")
	case v.Correct != nil && *v.Correct:
		fmt.Fprintln(out, "✅ Correct!")
	default:
		fmt.Fprintln(out, "❌ Incorrect.")
	}
	if v.Correct == nil || !*v.Correct {
		fmt.Fprintf(out, "Answer: %s\n", v.CorrectAnswer)
	}
	if v.Explanation != "" {
		fmt.Fprintln(out, v.Explanation)
	}
	if v.Streak > 1 {
		fmt.Fprintf(out, "🔥 %d in a row\n", v.Streak)
	}
	fmt.Fprintln(out, "Press Enter to continue.")
}

func printOutcome(out io.Writer, o app.Outcome) {
	r := o.Result
	fmt.Fprintf(out, "\n%s\n%s\n", o.Feedback.Title, o.Feedback.Message)
	fmt.Fprintf(out, "Score: %d/%d (%d%%)\n", r.Score, r.TotalQuestions, o.Percent)
	fmt.Fprintf(out, "Time: %ds, %.2fs per question\n", r.TimeSpent, r.AverageResponseTime)
}
