package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"storysage/internal/biography"
	"storysage/internal/config"
	"storysage/internal/editor"
	"storysage/internal/export"
	"storysage/internal/storage"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "storysage",
		Short: "Biography document editor for the StorySage backend",
	}
	dbPath     string
	exportDir  string
	authorName string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "storysage.db", "Path to the local biography database (SQLite)")
	rootCmd.PersistentFlags().StringVarP(&exportDir, "out", "o", "exports", "Directory for exported files")

	editCmd.AddCommand(renameCmd, addCmd, deleteCmd, contentCmd, commentCmd)
	rootCmd.AddCommand(importCmd, showCmd, editCmd, statusCmd, saveCmd, cancelCmd, exportCmd)
}

// initStore opens the SQLite store, letting config.yaml override the
// default paths when present.
func initStore() (*storage.SQLiteStore, error) {
	if cfg, err := config.LoadConfig("config.yaml"); err == nil {
		if cfg.Storage.Path != "" && !rootCmd.PersistentFlags().Changed("db") {
			dbPath = cfg.Storage.Path
		}
		if cfg.Export.Dir != "" && !rootCmd.PersistentFlags().Changed("out") {
			exportDir = cfg.Export.Dir
		}
		authorName = cfg.Author.Name
	}
	return storage.NewSQLiteStore(dbPath)
}

// openSession resumes the stored draft for the latest biography, or begins
// a fresh session on it.
func openSession(ctx context.Context, store *storage.SQLiteStore) (*editor.Session, error) {
	bio, err := store.LatestBiography(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("no biography imported yet; run 'storysage import <file>' first")
		}
		return nil, err
	}

	working, edits, err := store.LoadDraft(ctx, bio.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return editor.Begin(bio), nil
	}
	if err != nil {
		return nil, err
	}
	return editor.Resume(working, bio, edits), nil
}

func persistSession(ctx context.Context, store *storage.SQLiteStore, session *editor.Session) error {
	doc := session.Document()
	return store.SaveDraft(ctx, doc.ID, doc, session.Edits())
}

// localSubmitter stands in for the StorySage backend: it replays the edit
// log against the stored authoritative tree and rejects logs that violate
// the numbering invariants, the way the server's validation would.
type localSubmitter struct {
	store *storage.SQLiteStore
}

func (l *localSubmitter) Submit(ctx context.Context, biographyID string, edits []editor.Edit) (*biography.Document, error) {
	current, err := l.store.LoadBiography(ctx, biographyID)
	if err != nil {
		return nil, err
	}
	next, err := editor.Apply(current, edits)
	if err != nil {
		return nil, &editor.RejectedError{Status: 400, Detail: err.Error()}
	}
	if err := next.Validate(); err != nil {
		return nil, &editor.RejectedError{Status: 400, Detail: err.Error()}
	}
	if err := l.store.SaveBiography(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Load a biography JSON document into the local store",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		data, err := os.ReadFile(args[0])
		if err != nil {
			log.Fatalf("Failed to read file: %v", err)
		}
		doc, err := biography.DecodeDocument(data)
		if err != nil {
			log.Fatalf("Invalid biography document: %v", err)
		}

		store, err := initStore()
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		if strings.TrimSpace(doc.Title) == "" {
			// Untitled imports fall back to the configured author name.
			if authorName != "" {
				doc.Title = authorName + "'s Biography"
			} else {
				doc.Title = "My Biography"
			}
		}
		if err := store.SaveBiography(ctx, doc); err != nil {
			log.Fatalf("Failed to store biography: %v", err)
		}
		fmt.Printf("📖 Imported %q (%d sections). Database: %s\n", doc.Title, doc.Len(), dbPath)
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the biography (with any pending draft edits) as Markdown",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		store, err := initStore()
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		session, err := openSession(ctx, store)
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Print(export.ToMarkdown(session.Document()))
	},
}

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Apply one edit to the biography draft",
}

var renameCmd = &cobra.Command{
	Use:   "rename [section-id] [new-title]",
	Short: "Retitle a section (or the biography itself via its id)",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		withSession(func(ctx context.Context, session *editor.Session) error {
			return session.Rename(args[0], args[1])
		})
		fmt.Println("✏️  Section renamed.")
	},
}

var sectionPrompt string

var addCmd = &cobra.Command{
	Use:   "add [number] [label]",
	Short: "Add a new section, e.g. add 1.2 Education --prompt \"school years\"",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		withSession(func(ctx context.Context, session *editor.Session) error {
			sec, err := session.AddSection(args[0], args[1], sectionPrompt)
			if err != nil {
				return err
			}
			fmt.Printf("➕ Added %q (%s)\n", sec.Title, sec.ID)
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [section-id]",
	Short: "Delete a section and all of its subsections",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withSession(func(ctx context.Context, session *editor.Session) error {
			return session.DeleteSection(args[0])
		})
		fmt.Println("🗑️  Section deleted.")
	},
}

var contentFile string

var contentCmd = &cobra.Command{
	Use:   "content [section-id] [text]",
	Short: "Replace a section's content (or read it from --file)",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		text := ""
		if len(args) == 2 {
			text = args[1]
		}
		if contentFile != "" {
			data, err := os.ReadFile(contentFile)
			if err != nil {
				log.Fatalf("Failed to read content file: %v", err)
			}
			text = string(data)
		}
		withSession(func(ctx context.Context, session *editor.Session) error {
			return session.ChangeContent(args[0], text)
		})
		fmt.Println("📝 Content updated.")
	},
}

var commentCmd = &cobra.Command{
	Use:   "comment [section-id] [quoted-text] [comment]",
	Short: "Attach a comment to a quoted excerpt of a section",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		withSession(func(ctx context.Context, session *editor.Session) error {
			return session.AddComment(args[0], args[1], args[2])
		})
		fmt.Println("💬 Comment added.")
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize pending draft edits per section",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		store, err := initStore()
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		session, err := openSession(ctx, store)
		if err != nil {
			log.Fatalf("%v", err)
		}
		if !session.Dirty() {
			fmt.Println("✅ No pending edits.")
			return
		}
		for _, s := range editor.Summarize(session.Edits()) {
			parts := make([]string, 0, len(s.Counts))
			for editType, n := range s.Counts {
				parts = append(parts, fmt.Sprintf("%s×%d", editType, n))
			}
			fmt.Printf("  %-40s %s\n", s.Title, strings.Join(parts, ", "))
		}
	},
}

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Validate and submit the draft edits",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		store, err := initStore()
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		session, err := openSession(ctx, store)
		if err != nil {
			log.Fatalf("%v", err)
		}
		if !session.Dirty() {
			fmt.Println("✅ Nothing to save.")
			return
		}

		doc, err := session.Save(ctx, &localSubmitter{store: store})
		if err != nil {
			// The draft survives a rejection so the user can fix and retry.
			log.Fatalf("Save failed: %v", err)
		}
		if err := store.DeleteDraft(ctx, doc.ID); err != nil {
			log.Fatalf("Failed to clear draft: %v", err)
		}
		fmt.Printf("🎉 Biography saved (%d sections).\n", doc.Len())
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Discard the draft edits",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		store, err := initStore()
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		bio, err := store.LatestBiography(ctx)
		if err != nil {
			log.Fatalf("%v", err)
		}
		if err := store.DeleteDraft(ctx, bio.ID); err != nil {
			log.Fatalf("Failed to discard draft: %v", err)
		}
		fmt.Println("↩️  Draft discarded.")
	},
}

var exportCmd = &cobra.Command{
	Use:       "export [markdown|pdf-blocks]",
	Short:     "Write the biography to an export file",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"markdown", "pdf-blocks"},
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		store, err := initStore()
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		bio, err := store.LatestBiography(ctx)
		if err != nil {
			log.Fatalf("%v", err)
		}
		if err := os.MkdirAll(exportDir, 0755); err != nil {
			log.Fatalf("Failed to create export directory: %v", err)
		}

		switch args[0] {
		case "markdown":
			path := filepath.Join(exportDir, export.SlugFilename(bio.Title, ".md"))
			if err := os.WriteFile(path, []byte(export.ToMarkdown(bio)), 0644); err != nil {
				log.Fatalf("Failed to write markdown: %v", err)
			}
			fmt.Printf("📄 Markdown written to %s\n", path)
		case "pdf-blocks":
			blocks := export.CollectPDFBlocks(bio)
			path := filepath.Join(exportDir, export.SlugFilename(bio.Title, ".blocks.json"))
			data, err := exportBlocksJSON(blocks)
			if err != nil {
				log.Fatalf("Failed to encode blocks: %v", err)
			}
			if err := os.WriteFile(path, data, 0644); err != nil {
				log.Fatalf("Failed to write blocks: %v", err)
			}
			fmt.Printf("📄 PDF blocks written to %s\n", path)
		default:
			log.Fatalf("Unknown export format: %s", args[0])
		}
	},
}

func exportBlocksJSON(blocks []export.Block) ([]byte, error) {
	data, err := json.MarshalIndent(blocks, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// withSession runs one mutation inside the open draft session and persists
// the result.
func withSession(fn func(ctx context.Context, session *editor.Session) error) {
	ctx := context.Background()

	store, err := initStore()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	session, err := openSession(ctx, store)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := fn(ctx, session); err != nil {
		log.Fatalf("Edit failed: %v", err)
	}
	if err := persistSession(ctx, store, session); err != nil {
		log.Fatalf("Failed to persist draft: %v", err)
	}
}

func init() {
	addCmd.Flags().StringVarP(&sectionPrompt, "prompt", "p", "", "Writing prompt for the AI to draft this section from")
	contentCmd.Flags().StringVarP(&contentFile, "file", "f", "", "Read the new content from a file")
}
