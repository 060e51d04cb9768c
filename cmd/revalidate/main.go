// Command revalidate derives the rendered paths affected by a content event and
// sends them to the frontend's revalidation webhook.
//
//	revalidate -type post -slug hello-world -old-status draft -status publish
//	revalidate -type category -event delete -products mug,shirt
//	revalidate -all
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	config "github.com/avatarctic/headless-gateway/configs"
	"github.com/avatarctic/headless-gateway/internal/core/domain/revalidation"
	"github.com/avatarctic/headless-gateway/internal/infrastructure/webhook"
	"github.com/sirupsen/logrus"
)

type options struct {
	frontend    string
	secret      string
	all         bool
	paths       string
	kind        string
	event       string
	id          int
	slug        string
	status      string
	oldStatus   string
	categories  string
	products    string
	parentType  string
	frontPageID int
	dryRun      bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	var o options
	flag.StringVar(&o.frontend, "frontend", cfg.Frontend.BaseURL, "frontend base URL")
	flag.StringVar(&o.secret, "secret", cfg.Frontend.RevalidateSecret, "shared revalidation secret")
	flag.BoolVar(&o.all, "all", false, "invalidate the whole site")
	flag.StringVar(&o.paths, "paths", "", "comma-separated explicit paths")
	flag.StringVar(&o.kind, "type", "", "content type: post, page, product, category, comment, menu, settings")
	flag.StringVar(&o.event, "event", "save", "save or delete")
	flag.IntVar(&o.id, "id", 0, "content ID")
	flag.StringVar(&o.slug, "slug", "", "content or category slug")
	flag.StringVar(&o.status, "status", revalidation.StatusPublish, "new status")
	flag.StringVar(&o.oldStatus, "old-status", revalidation.StatusPublish, "previous status")
	flag.StringVar(&o.categories, "categories", "", "comma-separated product category slugs")
	flag.StringVar(&o.products, "products", "", "comma-separated published product slugs of a deleted category")
	flag.StringVar(&o.parentType, "parent-type", string(revalidation.TypePost), "comment parent type")
	flag.IntVar(&o.frontPageID, "front-page-id", 0, "ID of the page shown at /")
	flag.BoolVar(&o.dryRun, "dry-run", false, "print the request without sending it")
	flag.Parse()

	req, ok, err := buildRequest(o)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}
	if !ok {
		fmt.Println("nothing to revalidate")
		return
	}
	if req.All {
		fmt.Println("revalidate: all")
	} else {
		fmt.Println("revalidate:", strings.Join(req.Paths, " "))
	}
	if o.dryRun {
		return
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.DebugLevel)

	n := webhook.NewNotifier(webhook.Config{
		FrontendURL: o.frontend,
		Secret:      o.secret,
		Timeout:     cfg.Frontend.WebhookTimeout,
	}, nil, logger)
	if !n.Enabled() {
		fmt.Fprintln(os.Stderr, "frontend URL and secret are required")
		os.Exit(1)
	}
	n.Notify(req)
	n.Wait()
}

func buildRequest(o options) (revalidation.Request, bool, error) {
	d := revalidation.Deriver{FrontPageID: o.frontPageID}

	if o.all {
		return revalidation.AllRequest(), true, nil
	}
	if o.paths != "" {
		req, ok := revalidation.PathsRequest(splitList(o.paths)...)
		return req, ok, nil
	}

	c := revalidation.Content{
		ID:         o.id,
		Type:       revalidation.ContentType(o.kind),
		Slug:       o.slug,
		Status:     o.status,
		Categories: splitList(o.categories),
	}

	switch o.kind {
	case "menu", "settings":
		return d.SiteChanged(), true, nil
	case "category":
		if o.event == "delete" {
			var products []revalidation.Content
			for _, slug := range splitList(o.products) {
				products = append(products, revalidation.Content{Type: revalidation.TypeProduct, Slug: slug, Status: revalidation.StatusPublish})
			}
			req, ok := d.CategoryDeleted(products)
			return req, ok, nil
		}
		req, ok := d.CategoryChanged(o.slug)
		return req, ok, nil
	case "comment":
		parent := revalidation.Content{ID: o.id, Type: revalidation.ContentType(o.parentType), Slug: o.slug}
		req, ok := d.CommentChanged(&parent)
		return req, ok, nil
	case string(revalidation.TypePost), string(revalidation.TypePage), string(revalidation.TypeProduct):
		if o.slug == "" && !(c.Type == revalidation.TypePage && o.id != 0 && o.id == o.frontPageID) {
			return revalidation.Request{}, false, fmt.Errorf("-slug is required for %s events", o.kind)
		}
		if o.event == "delete" {
			if c.Type == revalidation.TypeProduct {
				req, ok := d.StatusChanged(c, revalidation.StatusPublish, "trash")
				return req, ok, nil
			}
			req, ok := d.Deleted(c)
			return req, ok, nil
		}
		if c.Type == revalidation.TypeProduct && o.oldStatus == o.status {
			req, ok := d.ProductSaved(c)
			return req, ok, nil
		}
		req, ok := d.StatusChanged(c, o.oldStatus, o.status)
		return req, ok, nil
	}
	return revalidation.Request{}, false, fmt.Errorf("unknown -type %q", o.kind)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
