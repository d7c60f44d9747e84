package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var errNoPersistentIndex = errors.New("teaching materials need a persistent vector backend (set MENTOR_VECTOR_BACKEND=pinecone)")

var materialCmd = &cobra.Command{
	Use:   "material",
	Short: "Index and search teaching materials",
}

var materialAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Index a teaching material file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		id, _ := cmd.Flags().GetString("id")
		subject, _ := cmd.Flags().GetString("subject")
		level, _ := cmd.Flags().GetString("level")
		source, _ := cmd.Flags().GetString("source")
		title, _ := cmd.Flags().GetString("title")

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read material: %w", err)
		}
		if strings.TrimSpace(string(content)) == "" {
			return fmt.Errorf("material %s is empty", path)
		}

		r, closeFn := persistentRAG(cmd.Context())
		if r == nil {
			return errNoPersistentIndex
		}
		defer closeFn()

		if title == "" {
			title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		if source == "" {
			source = filepath.Base(path)
		}
		metadata := map[string]string{"title": title, "source": source}
		if subject != "" {
			metadata["subject"] = subject
		}
		if level != "" {
			metadata["level"] = level
		}

		materialID, chunks, err := r.StoreTeachingMaterial(cmd.Context(), id, string(content), metadata)
		if err != nil {
			return err
		}
		fmt.Printf("Indexed %s as %s (%d chunks)\n", path, materialID, chunks)
		return nil
	},
}

var materialSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed teaching materials",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		level, _ := cmd.Flags().GetString("level")
		k, _ := cmd.Flags().GetInt("k")

		r, closeFn := persistentRAG(cmd.Context())
		if r == nil {
			return errNoPersistentIndex
		}
		defer closeFn()

		hits, err := r.SearchTeachingMaterials(cmd.Context(), args[0], subject, level, k)
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			fmt.Println("No matching materials.")
			return nil
		}

		sep := strings.Repeat("─", 60)
		for i, h := range hits {
			fmt.Printf("#%d  score %.3f  %v\n", i+1, h.Score, h.Metadata["title"])
			fmt.Println(sep)
			fmt.Println(h.Content)
			fmt.Println()
		}
		return nil
	},
}

func init() {
	materialAddCmd.Flags().String("file", "", "Path to the material text file (required)")
	materialAddCmd.Flags().String("id", "", "Material id (default: random uuid)")
	materialAddCmd.Flags().String("subject", "", "Subject, e.g. 数学")
	materialAddCmd.Flags().String("level", "", "Level, matched against student grade")
	materialAddCmd.Flags().String("source", "", "Source shown to students (default: file name)")
	materialAddCmd.Flags().String("title", "", "Title (default: file name without extension)")
	_ = materialAddCmd.MarkFlagRequired("file")

	materialSearchCmd.Flags().String("subject", "", "Filter by subject")
	materialSearchCmd.Flags().String("level", "", "Filter by level")
	materialSearchCmd.Flags().IntP("k", "k", 5, "Number of results")

	materialCmd.AddCommand(materialAddCmd)
	materialCmd.AddCommand(materialSearchCmd)
}
