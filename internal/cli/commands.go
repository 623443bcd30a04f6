package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"eduquiz-service/internal/domain"
	"eduquiz-service/internal/ranking"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// withDeps runs fn with wired services and closes them afterwards.
func withDeps(fn func(cmd *cobra.Command, args []string, d *deps) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd.Context())
		if err != nil {
			return err
		}
		defer d.Close()
		return fn(cmd, args, d)
	}
}

// currentUser returns the logged-in user or domain.ErrUnauthorized.
func currentUser(cmd *cobra.Command, d *deps) (domain.User, error) {
	user, ok, err := d.auth.Current(cmd.Context())
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, errors.Wrap(domain.ErrUnauthorized, "run `eduquiz login` first")
	}
	return user, nil
}

func requireAdmin(cmd *cobra.Command, d *deps) (domain.User, error) {
	user, err := currentUser(cmd, d)
	if err != nil {
		return user, err
	}
	if !user.IsAdmin() {
		return user, domain.ErrForbidden
	}
	return user, nil
}

func newLoginCmd() *cobra.Command {
	var name, password string
	var admin bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as a student (--name) or as the administrator (--admin --password)",
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			var (
				user domain.User
				err  error
			)
			if admin {
				user, err = d.auth.LoginAdmin(cmd.Context(), password)
			} else {
				user, err = d.auth.LoginStudent(cmd.Context(), name)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s! (%s)\n", user.Name, user.Role)
			return nil
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "student name (at least 2 characters)")
	cmd.Flags().BoolVar(&admin, "admin", false, "sign in as administrator")
	cmd.Flags().StringVar(&password, "password", "", "administrator password")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the signed-in user",
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			if err := d.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		}),
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and their statistics",
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			user, err := currentUser(cmd, d)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", user.Name, user.Role)
			if user.IsAdmin() {
				return nil
			}
			stats, err := d.rankings.ForUser(cmd.Context(), user.Name)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Quizzes played: %d\nAverage score:  %d%%\n", stats.TotalQuizzes, stats.AverageScore)
			return nil
		}),
	}
}

func newProfileCmd() *cobra.Command {
	var name, password string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Change the administrator name and password",
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			user, err := requireAdmin(cmd, d)
			if err != nil {
				return err
			}
			if name == "" {
				name = user.Name
			}
			updated, err := d.auth.UpdateProfile(cmd.Context(), user.ID, name, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile updated: %s\n", updated.Name)
			return nil
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "new display name")
	cmd.Flags().StringVar(&password, "password", "", "new password (unchanged when empty)")
	return cmd
}

func newThemesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List themes",
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			themes, err := d.catalog.Themes(cmd.Context())
			if err != nil {
				return err
			}
			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tTHEME")
			for _, t := range themes {
				fmt.Fprintf(w, "%s\t%s %s\n", t.ID, t.Icon, t.Name)
			}
			return w.Flush()
		}),
	}
}

func newQuizzesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quizzes <themeId>",
		Short: "List the quizzes of a theme",
		Args:  cobra.ExactArgs(1),
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			quizzes, err := d.catalog.QuizzesByTheme(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tQUIZ\tQUESTIONS\tDESCRIPTION")
			for _, q := range quizzes {
				questions, err := d.catalog.Questions(cmd.Context(), q.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", q.ID, q.Title, len(questions), q.Description)
			}
			return w.Flush()
		}),
	}
}

func newRankingsCmd() *cobra.Command {
	var themeID, quizID string
	cmd := &cobra.Command{
		Use:   "rankings",
		Short: "Show the leaderboard (global, per theme or per quiz)",
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			scope := ranking.Global()
			switch {
			case quizID != "":
				scope = ranking.ByQuiz(quizID)
			case themeID != "":
				scope = ranking.ByTheme(themeID)
			}
			standings, err := d.rankings.Leaderboard(cmd.Context(), scope)
			if err != nil {
				return err
			}
			if len(standings) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No results yet.")
				return nil
			}
			w := table(cmd.OutOrStdout())
			fmt.Fprintln(w, "#\tSTUDENT\tSCORE\t%\tAVG TIME\tDATE")
			for _, s := range standings {
				pos := fmt.Sprint(s.Position)
				if s.Medal != "" {
					pos += " " + s.Medal
				}
				fmt.Fprintf(w, "%s\t%s\t%d/%d\t%d%%\t%.2fs\t%s\n",
					pos, s.Result.UserName, s.Result.Score, s.Result.TotalQuestions,
					s.Percent, s.Result.AverageResponseTime, s.Result.Date.Local().Format("2006-01-02 15:04"))
			}
			return w.Flush()
		}),
	}
	cmd.Flags().StringVar(&themeID, "theme", "", "only results of this theme")
	cmd.Flags().StringVar(&quizID, "quiz", "", "only results of this quiz")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show your statistics, or the dashboard when signed in as administrator",
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			user, err := currentUser(cmd, d)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !user.IsAdmin() {
				mine, err := d.rankings.ForUser(cmd.Context(), user.Name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Quizzes played: %d\nAverage score:  %d%%\n", mine.TotalQuizzes, mine.AverageScore)
				return nil
			}
			stats, err := d.rankings.Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			averages, err := d.rankings.UserAverages(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Students:       %d\n", stats.TotalUsers)
			fmt.Fprintf(out, "Quizzes played: %d\n", stats.TotalResults)
			fmt.Fprintf(out, "Average score:  %d%%\n", stats.AverageScore)
			fmt.Fprintf(out, "Most popular:   %s\n\n", stats.PopularQuiz)
			w := table(out)
			fmt.Fprintln(w, "STUDENT\tATTEMPTS\tAVERAGE")
			for _, a := range averages {
				fmt.Fprintf(w, "%s\t%d\t%d%%\n", a.UserName, a.Attempts, a.AverageScore)
			}
			return w.Flush()
		}),
	}
}

func newThemeCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "theme", Short: "Manage themes"}
	var in domain.Theme
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a theme",
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			if _, err := requireAdmin(cmd, d); err != nil {
				return err
			}
			theme, err := d.catalog.CreateTheme(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Theme created: %s\n", theme.ID)
			return nil
		}),
	}
	add.Flags().StringVar(&in.Name, "name", "", "theme name")
	add.Flags().StringVar(&in.Icon, "icon", "", "emoji shown next to the name")
	add.Flags().StringVar(&in.Color, "color", "", "display color")
	cmd.AddCommand(add)
	return cmd
}

func newQuizCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "quiz", Short: "Manage quizzes"}
	var in domain.Quiz
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a quiz in a theme",
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			if _, err := requireAdmin(cmd, d); err != nil {
				return err
			}
			quiz, err := d.catalog.CreateQuiz(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Quiz created: %s\n", quiz.ID)
			return nil
		}),
	}
	add.Flags().StringVar(&in.ThemeID, "theme", "", "theme id")
	add.Flags().StringVar(&in.Title, "title", "", "quiz title")
	add.Flags().StringVar(&in.Description, "description", "", "short description")
	cmd.AddCommand(add)
	return cmd
}

func newQuestionCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "question", Short: "Manage questions"}
	var (
		in      domain.Question
		qtype   string
		options []string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a question to a quiz",
		Long: `Add a question to a quiz.

Types: multiple (--option repeated, --correct index), boolean (--correct 0 for
True, 1 for False), short_answer (--answer), ordering (--option repeated in the
correct order).`,
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			if _, err := requireAdmin(cmd, d); err != nil {
				return err
			}
			in.Type = domain.QuestionType(qtype)
			in.Options = options
			q, err := d.catalog.CreateQuestion(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Question created: %s\n", q.ID)
			return nil
		}),
	}
	add.Flags().StringVar(&in.QuizID, "quiz", "", "quiz id")
	add.Flags().StringVar(&qtype, "type", string(domain.QuestionMultiple), "multiple, boolean, short_answer or ordering")
	add.Flags().StringVar(&in.Text, "text", "", "question text")
	add.Flags().StringArrayVar(&options, "option", nil, "answer option (repeatable)")
	add.Flags().IntVar(&in.CorrectAnswerIndex, "correct", 0, "index of the correct option")
	add.Flags().StringVar(&in.CorrectAnswerText, "answer", "", "expected text for short answers")
	add.Flags().StringVar(&in.Explanation, "explanation", "", "shown after the answer is revealed")
	add.Flags().IntVar(&in.TimeLimit, "time", 20, "time limit in seconds")
	cmd.AddCommand(add)
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <theme|quiz|question|user> <id>",
		Short: "Delete an entity; themes and quizzes take their contents with them",
		Args:  cobra.ExactArgs(2),
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			if _, err := requireAdmin(cmd, d); err != nil {
				return err
			}
			kind, err := domain.ParseEntityKind(args[0])
			if err != nil {
				return err
			}
			if err := d.catalog.Delete(cmd.Context(), kind, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", kind, args[1])
			return nil
		}),
	}
}

func newExportCmd() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all data as JSON or YAML",
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			if _, err := requireAdmin(cmd, d); err != nil {
				return err
			}
			data, err := d.data.Export(cmd.Context())
			if err != nil {
				return err
			}
			var raw []byte
			switch strings.ToLower(format) {
			case "json":
				raw, err = json.MarshalIndent(data, "", "  ")
			case "yaml", "yml":
				raw, err = yaml.Marshal(data)
			default:
				return domain.Invalid("unknown export format %q", format)
			}
			if err != nil {
				return errors.Wrap(err, "encode export")
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(raw)
				return err
			}
			return errors.Wrapf(os.WriteFile(output, raw, 0o644), "write %s", output)
		}),
	}
	cmd.Flags().StringVar(&format, "format", "json", "json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (stdout when empty)")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace all data with a JSON or YAML export",
		Args:  cobra.ExactArgs(1),
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			if _, err := requireAdmin(cmd, d); err != nil {
				return err
			}
			var (
				raw []byte
				err error
			)
			if args[0] == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return errors.Wrap(err, "read import")
			}
			data, err := d.data.Import(cmd.Context(), raw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d themes, %d quizzes, %d questions, %d results and %d users\n",
				len(data.Themes), len(data.Quizzes), len(data.Questions), len(data.Results), len(data.Users))
			return nil
		}),
	}
}

func newClearResultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-results",
		Short: "Delete every recorded result",
		RunE: withDeps(func(cmd *cobra.Command, args []string, d *deps) error {
			if _, err := requireAdmin(cmd, d); err != nil {
				return err
			}
			removed, err := d.data.ClearResults(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d results\n", removed)
			return nil
		}),
	}
}

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
