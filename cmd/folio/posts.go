package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eringen/folio"
	"github.com/eringen/folio/content"
	"github.com/eringen/folio/imageurl"
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Inspect and seed blog posts",
}

var postsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List posts from the configured content source",
	RunE: func(cmd *cobra.Command, args []string) error {
		src, closer, err := folio.OpenContent(cfg, logger)
		if err != nil {
			return err
		}
		if closer != nil {
			defer closer.Close()
		}
		posts, err := src.ListPosts(cmd.Context())
		if err != nil {
			return err
		}
		return printPosts(cmd.OutOrStdout(), posts)
	},
}

var postsSeedCmd = &cobra.Command{
	Use:   "seed <posts.yaml>",
	Short: "Load posts from a YAML file into the local SQLite store",
	Long: `Reads a YAML document with a top-level "posts" list and upserts each
entry into the local store. Image paths are resolved relative to the YAML
file, resized, and copied into the configured image directory.

Example:
  posts:
    - title: Building RAG pipelines
      category: Generative AI
      tags: [llm, retrieval]
      published_at: 2024-03-05T10:00:00Z
      read_time: 6
      image: images/rag.png
      excerpt: Notes from shipping retrieval in production.
      body: |
        First paragraph.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := content.NewSQLiteStore(cfg.Content.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		n, err := seedPosts(cmd.Context(), store, f, filepath.Dir(args[0]), cfg.Content.ImageDir)
		if err != nil {
			return err
		}
		logger.Info("seeded posts", zap.Int("count", n), zap.String("database", cfg.Content.DatabasePath))
		return nil
	},
}

type seedFile struct {
	Posts []seedPost `yaml:"posts"`
}

type seedPost struct {
	Title       string         `yaml:"title"`
	Slug        string         `yaml:"slug"`
	Excerpt     string         `yaml:"excerpt"`
	Category    string         `yaml:"category"`
	Tags        []string       `yaml:"tags"`
	PublishedAt time.Time      `yaml:"published_at"`
	ReadTime    int            `yaml:"read_time"`
	Image       string         `yaml:"image"`
	Crop        *imageurl.Crop `yaml:"crop"`
	Body        string         `yaml:"body"`
}

type postSaver interface {
	SavePost(ctx context.Context, p content.Post) error
}

// seedPosts decodes r and saves every post. Relative image paths resolve
// against baseDir and are imported into imageDir.
func seedPosts(ctx context.Context, store postSaver, r io.Reader, baseDir, imageDir string) (int, error) {
	var doc seedFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}
	for i, sp := range doc.Posts {
		p := content.Post{
			PostSummary: content.PostSummary{
				Title:       sp.Title,
				Slug:        sp.Slug,
				Excerpt:     content.String(sp.Excerpt),
				Category:    content.String(sp.Category),
				Tags:        sp.Tags,
				PublishedAt: content.Time(sp.PublishedAt),
			},
			Body: sp.Body,
		}
		if p.Slug == "" {
			p.Slug = folio.Slugify(sp.Title)
		}
		if sp.ReadTime > 0 {
			p.ReadTime = content.Int(sp.ReadTime)
		}
		if sp.Image != "" {
			path := sp.Image
			if !filepath.IsAbs(path) {
				path = filepath.Join(baseDir, path)
			}
			name, err := imageurl.ImportImage(imageDir, path)
			if err != nil {
				return i, fmt.Errorf("post %d (%s): %w", i, p.Slug, err)
			}
			p.FeaturedImage = &imageurl.Ref{Asset: name, Crop: sp.Crop}
		}
		if err := store.SavePost(ctx, p); err != nil {
			return i, fmt.Errorf("post %d (%s): %w", i, p.Slug, err)
		}
	}
	return len(doc.Posts), nil
}

func printPosts(w io.Writer, posts []content.PostSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tTITLE\tPUBLISHED\tTAGS")
	for _, p := range posts {
		published := "-"
		if p.PublishedAt != nil {
			published = p.PublishedAt.UTC().Format("2006-01-02")
		}
		slug := p.Slug
		if slug == "" {
			slug = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", slug, p.Title, published, strings.Join(p.Tags, ","))
	}
	return tw.Flush()
}
