package main

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/ostrova/agora/internal"
	"codeberg.org/ostrova/agora/internal/archive"
	"codeberg.org/ostrova/agora/internal/batch"
	"codeberg.org/ostrova/agora/internal/card"
	"codeberg.org/ostrova/agora/internal/cli"
	"codeberg.org/ostrova/agora/internal/compose"
	"codeberg.org/ostrova/agora/internal/export"
	"codeberg.org/ostrova/agora/internal/likedset"
	"codeberg.org/ostrova/agora/internal/models"
	"codeberg.org/ostrova/agora/internal/phonetic"
	"codeberg.org/ostrova/agora/internal/record"
	"codeberg.org/ostrova/agora/internal/selection"
	"codeberg.org/ostrova/agora/internal/session"
	"codeberg.org/ostrova/agora/internal/store"
	"codeberg.org/ostrova/agora/internal/terms"
	"codeberg.org/ostrova/agora/internal/translation"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	var defineFlags struct {
		typeCategory  string
		keyAttributes string
		impactPurpose string
	}

	defineCmd := &cobra.Command{
		Use:   "define <termID>",
		Short: "Compose and save a definition for a term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contributions := map[card.Slot]string{
				card.SlotTypeCategory:  defineFlags.typeCategory,
				card.SlotKeyAttributes: defineFlags.keyAttributes,
				card.SlotImpactPurpose: defineFlags.impactPurpose,
			}
			return runDefine(cmd.Context(), flags, args[0], contributions)
		},
	}
	defineCmd.Flags().StringVar(&defineFlags.typeCategory, "type", "", "Replace the type/category slot with your own text")
	defineCmd.Flags().StringVar(&defineFlags.keyAttributes, "attributes", "", "Replace the key-attributes slot with your own text")
	defineCmd.Flags().StringVar(&defineFlags.impactPurpose, "impact", "", "Replace the impact/purpose slot with your own text")

	var recordSlot string
	recordCmd := &cobra.Command{
		Use:   "record <termID>",
		Short: "Record an audio card from the microphone for a term slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd.Context(), flags, args[0], card.Slot(recordSlot))
		},
	}
	recordCmd.Flags().StringVar(&recordSlot, "slot", string(card.SlotKeyAttributes), "Target slot: typeCategory, keyAttributes or impactPurpose")

	var exportOutput string
	exportCmd := &cobra.Command{
		Use:   "export [termID]",
		Short: "Export saved definitions to a CSV file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			termID := ""
			if len(args) > 0 {
				termID = args[0]
			}
			output := exportOutput
			if !cmd.Flags().Changed("output") && termID != "" {
				output = internal.SanitizeFilename(termID) + "_definitions.csv"
			}
			return runExport(cmd.Context(), flags, termID, output)
		},
	}
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "definitions.csv", "Output CSV path")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "terms",
			Short: "List the vocabulary terms",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runTerms(flags)
			},
		},
		defineCmd,
		&cobra.Command{
			Use:   "definitions <termID>",
			Short: "Browse the community definitions of a term",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runDefinitions(cmd.Context(), flags, args[0])
			},
		},
		&cobra.Command{
			Use:   "like <definitionID>",
			Short: "Toggle your like on a definition",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runLike(cmd.Context(), flags, args[0])
			},
		},
		recordCmd,
		exportCmd,
		&cobra.Command{
			Use:   "import <file>",
			Short: "Import text definitions from a file, one per line",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runImport(cmd.Context(), flags, args[0])
			},
		},
		&cobra.Command{
			Use:   "archive",
			Short: "Move the data directory aside and start fresh",
			RunE: func(cmd *cobra.Command, args []string) error {
				return archive.ArchiveData(dataDir(flags))
			},
		},
		&cobra.Command{
			Use:   "phonetic <termID>",
			Short: "Fetch a pronunciation breakdown for a term",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runPhonetic(cmd.Context(), flags, args[0])
			},
		},
		&cobra.Command{
			Use:   "models",
			Short: "List OpenAI models available to the configured API key",
			RunE: func(cmd *cobra.Command, args []string) error {
				return models.NewLister(cli.GetOpenAIKey()).ListAvailableModels()
			},
		},
	)

	// Execute command
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func activeLanguage(flags *cli.Flags) (card.Language, error) {
	language := card.Language(flags.Language)
	for _, known := range card.Languages {
		if language == known {
			return language, nil
		}
	}
	return "", fmt.Errorf("unsupported language %q (use en or de)", flags.Language)
}

func loadCatalog() (*terms.Catalog, error) {
	if path := viper.GetString("terms.file"); path != "" {
		return terms.Load(path)
	}
	return terms.Embedded()
}

func dataDir(flags *cli.Flags) string {
	if configured := viper.GetString("data.directory"); configured != "" {
		return configured
	}
	return flags.DataDir
}

func openStores(flags *cli.Flags) (*store.SQLiteStore, *store.FileBlobStore, *likedset.Set, error) {
	dataDir := dataDir(flags)

	db, err := store.NewSQLiteStore(filepath.Join(dataDir, "agora.db"))
	if err != nil {
		return nil, nil, nil, err
	}
	blobs, err := store.NewFileBlobStore(filepath.Join(dataDir, "blobs"))
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	liked, err := likedset.Open(filepath.Join(dataDir, "liked.json"))
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	return db, blobs, liked, nil
}

func newSession(ctx context.Context, flags *cli.Flags, db *store.SQLiteStore, termID string) (*session.Session, error) {
	language, err := activeLanguage(flags)
	if err != nil {
		return nil, err
	}
	catalog, err := loadCatalog()
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	sess := session.New(ctx, catalog, db, selection.NewEngine(language, rng))
	if err := sess.SetTermID(ctx, termID); err != nil {
		return nil, err
	}
	return sess, nil
}

func runTerms(flags *cli.Flags) error {
	language, err := activeLanguage(flags)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	for _, id := range catalog.IDs() {
		term, _ := catalog.ByID(id)
		locale := term.Locale(language)
		fmt.Printf("%-20s %s", id, locale.Term)
		if locale.Phonetic != "" {
			fmt.Printf("  [%s]", locale.Phonetic)
		}
		fmt.Println()
		if locale.Etymology != "" {
			fmt.Printf("%-20s %s\n", "", locale.Etymology)
		}
	}
	return nil
}

func runDefine(ctx context.Context, flags *cli.Flags, termID string, contributions map[card.Slot]string) error {
	db, _, liked, err := openStores(flags)
	if err != nil {
		return err
	}
	defer db.Close()

	sess, err := newSession(ctx, flags, db, termID)
	if err != nil {
		return err
	}

	// Contributed text replaces the default card in that slot
	for slot, text := range contributions {
		if text == "" {
			continue
		}
		option := card.Option{
			Kind:    card.KindText,
			Content: text,
			Origin:  card.OriginUser,
		}
		if _, err := sess.Contribute(ctx, slot, option); err != nil {
			return fmt.Errorf("failed to contribute %s card: %w", slot, err)
		}
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	composer := compose.NewComposer(sess, db, liked, rng)

	id, err := composer.Save(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Saved definition %s for %s\n", id, termID)
	return nil
}

func runDefinitions(ctx context.Context, flags *cli.Flags, termID string) error {
	language, err := activeLanguage(flags)
	if err != nil {
		return err
	}
	sortMode, err := parseSortMode(flags.Sort)
	if err != nil {
		return err
	}

	db, _, liked, err := openStores(flags)
	if err != nil {
		return err
	}
	defer db.Close()

	sess, err := newSession(ctx, flags, db, termID)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	composer := compose.NewComposer(sess, db, liked, rng)
	composer.SetQuery(flags.Search)
	composer.SetSortMode(sortMode)

	var translator *translation.Translator
	if flags.Translate {
		translator = translation.NewTranslator(cli.GetOpenAIKey())
	}

	defs := composer.View(termID)
	if len(defs) == 0 {
		fmt.Println("No definitions yet.")
		return nil
	}

	for _, def := range defs {
		marker := " "
		if composer.Liked(def.ID) {
			marker = "*"
		}
		fmt.Printf("%s %s  %s (%s)  likes: %d  %s\n",
			marker, def.ID, def.TermText, def.TermLanguage, def.Likes,
			def.CreatedAt.Format("2006-01-02 15:04"))
		for _, slot := range card.Slots {
			option := def.Slot(slot)
			content := option.Content
			if option.Kind == card.KindText && translator != nil {
				content = translator.TranslateOrOriginal(ctx, content, def.TermLanguage, language)
			}
			fmt.Printf("    %-15s %-8s %s\n", slot, option.Kind, content)
		}
	}
	return nil
}

func runLike(ctx context.Context, flags *cli.Flags, definitionID string) error {
	db, _, liked, err := openStores(flags)
	if err != nil {
		return err
	}
	defer db.Close()

	defs, err := db.List(ctx)
	if err != nil {
		return err
	}
	var current *store.Definition
	for i := range defs {
		if defs[i].ID == definitionID {
			current = &defs[i]
			break
		}
	}
	if current == nil {
		return fmt.Errorf("no definition with id %s", definitionID)
	}

	sess, err := newSession(ctx, flags, db, current.TermID)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	composer := compose.NewComposer(sess, db, liked, rng)

	wasLiked := composer.Liked(definitionID)
	if err := composer.Like(ctx, definitionID, current.Likes); err != nil {
		return err
	}
	if wasLiked {
		fmt.Printf("Removed like from %s\n", definitionID)
	} else {
		fmt.Printf("Liked %s\n", definitionID)
	}
	return nil
}

func runRecord(ctx context.Context, flags *cli.Flags, termID string, slot card.Slot) error {
	if !card.ValidSlot(slot) {
		return fmt.Errorf("unknown slot %q", slot)
	}

	db, blobs, _, err := openStores(flags)
	if err != nil {
		return err
	}
	defer db.Close()

	sess, err := newSession(ctx, flags, db, termID)
	if err != nil {
		return err
	}

	recorder := record.NewRecorder(record.NewMicDevice(), blobs)
	captured := make(chan record.Capture, 1)
	failed := make(chan error, 1)
	recorder.OnCapture = func(c record.Capture) { captured <- c }
	recorder.OnError = func(err error) { failed <- err }
	defer recorder.Teardown()

	if err := recorder.Start(ctx); err != nil {
		return err
	}
	fmt.Printf("Recording... press Enter to stop (auto-stops at %d seconds)\n", record.MaxSeconds)

	pressed := make(chan struct{})
	go func() {
		bufio.NewReader(os.Stdin).ReadString('\n')
		close(pressed)
	}()

	var capture record.Capture
	select {
	case capture = <-captured:
		fmt.Println("Reached the recording ceiling.")
	case err = <-failed:
		return err
	case <-pressed:
		capture, err = recorder.Stop(ctx)
		if err != nil {
			// The ceiling may have fired while waiting for the keypress
			select {
			case capture = <-captured:
			case ceilingErr := <-failed:
				return ceilingErr
			default:
				return err
			}
		}
	}

	if !capture.Durable {
		fmt.Fprintf(os.Stderr, "Warning: upload failed, recording kept locally at %s\n", capture.PreviewRef)
		return nil
	}

	option, err := sess.Contribute(ctx, slot, capture.Option)
	if err != nil {
		return err
	}
	fmt.Printf("Recorded %d seconds into %s slot of %s (option %s)\n",
		capture.Elapsed, slot, termID, option.ID)
	return nil
}

func runImport(ctx context.Context, flags *cli.Flags, filename string) error {
	entries, err := batch.ReadImportFile(filename)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no definitions found in %s", filename)
	}

	processedCount := 0
	errorCount := 0
	for i, entry := range entries {
		fmt.Printf("Importing %d/%d: %s\n", i+1, len(entries), entry.TermID)
		if err := runDefine(ctx, flags, entry.TermID, entry.Slots); err != nil {
			fmt.Fprintf(os.Stderr, "Error importing '%s': %v\n", entry.TermID, err)
			errorCount++
			// Continue with next entry
		} else {
			processedCount++
		}
	}

	fmt.Printf("\nImported %d definitions", processedCount)
	if errorCount > 0 {
		fmt.Printf(", %d failed", errorCount)
	}
	fmt.Println()
	return nil
}

func runExport(ctx context.Context, flags *cli.Flags, termID, outputPath string) error {
	db, _, _, err := openStores(flags)
	if err != nil {
		return err
	}
	defer db.Close()

	defs, err := db.List(ctx)
	if err != nil {
		return err
	}

	gen := export.NewGenerator(&export.GeneratorOptions{
		OutputPath:     outputPath,
		IncludeHeaders: true,
	})
	for _, def := range defs {
		if termID == "" || def.TermID == termID {
			gen.Add(def)
		}
	}
	if gen.Len() == 0 {
		return fmt.Errorf("no definitions to export")
	}

	if err := gen.GenerateCSV(); err != nil {
		return err
	}
	fmt.Printf("Exported %d definitions to %s\n", gen.Len(), outputPath)
	return nil
}

func runPhonetic(ctx context.Context, flags *cli.Flags, termID string) error {
	language, err := activeLanguage(flags)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}
	term, ok := catalog.ByID(termID)
	if !ok {
		return fmt.Errorf("no term with id %s", termID)
	}
	locale := term.Locale(language)

	fetcher := phonetic.NewFetcher(cli.GetOpenAIKey())
	breakdown, err := fetcher.Fetch(ctx, locale.Term, language)
	if err != nil {
		return err
	}
	fmt.Println(breakdown)
	return nil
}

func parseSortMode(s string) (compose.SortMode, error) {
	switch strings.ToLower(s) {
	case "recent":
		return compose.SortRecent, nil
	case "popular":
		return compose.SortPopular, nil
	case "random":
		return compose.SortRandom, nil
	}
	return "", fmt.Errorf("unknown sort mode %q (use recent, popular or random)", s)
}
