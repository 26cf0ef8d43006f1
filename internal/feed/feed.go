// Package feed emits an RSS feed for the newest entries of a collection.
package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/feeds"

	"git.home.luguber.info/inful/sitesmith/internal/collections"
	"git.home.luguber.info/inful/sitesmith/internal/fileset"
	"git.home.luguber.info/inful/sitesmith/internal/pipeline"
	"git.home.luguber.info/inful/sitesmith/internal/search"
)

const summaryLength = 280

// Options configure the feed.
type Options struct {
	Collection  string
	Path        string
	Limit       int
	Title       string
	Description string
	SiteURL     string
}

// Build assembles the feed from files, which are expected newest first.
func Build(files []*fileset.File, opts Options) *feeds.Feed {
	if opts.Limit > 0 && len(files) > opts.Limit {
		files = files[:opts.Limit]
	}
	base := strings.TrimSuffix(opts.SiteURL, "/")
	f := &feeds.Feed{
		Title:       opts.Title,
		Link:        &feeds.Link{Href: base + "/"},
		Description: opts.Description,
	}
	var newest time.Time
	for _, post := range files {
		link := base + "/" + strings.Trim(post.Meta.String("path"), "/")
		if !strings.HasSuffix(link, "/") {
			link += "/"
		}
		published := collections.PublishedAt(post)
		if published.After(newest) {
			newest = published
		}
		f.Items = append(f.Items, &feeds.Item{
			Title:       post.Meta.String("title"),
			Link:        &feeds.Link{Href: link},
			Id:          uuid.NewSHA1(uuid.NameSpaceURL, []byte(link)).String(),
			Description: summary(post),
			Content:     string(post.Contents),
			Created:     published,
		})
	}
	f.Created = newest
	f.Updated = newest
	return f
}

func summary(post *fileset.File) string {
	if blurb := post.Meta.String("search_blurb"); blurb != "" {
		return blurb
	}
	text := []rune(search.PlainText(post.Contents))
	if len(text) <= summaryLength {
		return string(text)
	}
	return strings.TrimSpace(string(text[:summaryLength])) + "…"
}

// Stage renders the feed of opts.Collection into opts.Path.
func Stage(opts Options) pipeline.Stage {
	return pipeline.Func("feed", []string{opts.Collection}, nil, func(_ context.Context, files *fileset.Set, pc *pipeline.Context) error {
		rss, err := Build(pipeline.MustGet(pc, collections.Key(opts.Collection)), opts).ToRss()
		if err != nil {
			return fmt.Errorf("render feed: %w", err)
		}
		files.Put(opts.Path, fileset.NewFile([]byte(rss)))
		return nil
	})
}
