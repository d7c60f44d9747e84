package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/abhisek/mentor/internal/app"
	"github.com/abhisek/mentor/internal/config"
	"github.com/abhisek/mentor/internal/rag"
	"github.com/abhisek/mentor/internal/store"
	"github.com/abhisek/mentor/internal/students"
)

var studentCmd = &cobra.Command{
	Use:   "student",
	Short: "Manage student profiles",
}

var studentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List student profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		skip, _ := cmd.Flags().GetInt("skip")
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		page, err := students.NewService(s, nil, zerolog.Nop()).List(cmd.Context(), skip, limit)
		if err != nil {
			return err
		}
		if len(page.Students) == 0 {
			fmt.Println("No students found.")
			return nil
		}

		printStudents(page.Students)
		fmt.Printf("\n%d of %d students\n", len(page.Students), page.Total)
		return nil
	},
}

var studentAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a student profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		grade, _ := cmd.Flags().GetString("grade")
		interests, _ := cmd.Flags().GetStringSlice("interests")
		style, _ := cmd.Flags().GetString("style")
		goals, _ := cmd.Flags().GetString("goals")
		background, _ := cmd.Flags().GetString("background")

		st := &store.Student{
			Name:          name,
			Grade:         grade,
			Interests:     interests,
			LearningStyle: style,
			LearningGoals: goals,
			Background:    background,
		}
		if cmd.Flags().Changed("age") {
			age, _ := cmd.Flags().GetInt("age")
			st.Age = &age
		}

		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		var index students.ProfileIndex
		if r, closeFn := persistentRAG(cmd.Context()); r != nil {
			defer closeFn()
			index = r
		}

		created, err := students.NewService(s, index, cliLogger()).Create(cmd.Context(), st)
		if err != nil {
			return err
		}
		fmt.Printf("Created student %d (%s)\n", created.ID, created.Name)
		return nil
	},
}

var studentSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fuzzy-search students by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		found, err := students.NewService(s, nil, zerolog.Nop()).Search(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(found) == 0 {
			fmt.Printf("No students match %q.\n", args[0])
			return nil
		}
		printStudents(found)
		return nil
	},
}

func printStudents(list []*store.Student) {
	fmt.Printf("%-6s  %-20s  %-10s  %-10s  %s\n", "ID", "Name", "Grade", "Style", "Interests")
	fmt.Println(strings.Repeat("─", 80))
	for _, st := range list {
		fmt.Printf("%-6d  %-20s  %-10s  %-10s  %s\n",
			st.ID, truncate(st.Name, 20), st.Grade, st.LearningStyle, strings.Join(st.Interests, ", "))
	}
}

// cliLogger logs warnings to stderr.
func cliLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel).With().Timestamp().Logger()
}

// persistentRAG connects the configured vector backend when it outlives
// the process. The in-memory backend would drop everything on exit, so it
// yields nil.
func persistentRAG(ctx context.Context) (*rag.Service, func() error) {
	v, err := config.LoadVector()
	if err != nil || v.Backend != config.VectorPinecone {
		return nil, nil
	}
	log := cliLogger()
	index, closeFn, err := app.NewIndex(ctx, v, log)
	if err != nil {
		log.Warn().Err(err).Msg("vector index unavailable")
		return nil, nil
	}
	if closeFn == nil {
		closeFn = func() error { return nil }
	}
	return rag.New(index, log), closeFn
}

func init() {
	studentListCmd.Flags().Int("skip", 0, "Number of students to skip")
	studentListCmd.Flags().IntP("limit", "n", students.DefaultLimit, "Number of students to show")

	studentAddCmd.Flags().String("name", "", "Student name (required)")
	studentAddCmd.Flags().Int("age", 0, "Age")
	studentAddCmd.Flags().String("grade", "", "Grade, e.g. 初二")
	studentAddCmd.Flags().StringSlice("interests", nil, "Comma-separated interests")
	studentAddCmd.Flags().String("style", "", "Learning style, e.g. 视觉型")
	studentAddCmd.Flags().String("goals", "", "Learning goals")
	studentAddCmd.Flags().String("background", "", "Background")
	_ = studentAddCmd.MarkFlagRequired("name")

	studentCmd.AddCommand(studentListCmd)
	studentCmd.AddCommand(studentAddCmd)
	studentCmd.AddCommand(studentSearchCmd)
}
