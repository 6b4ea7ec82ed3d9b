package cmd

import (
	"context"
	"fmt"

	"github.com/noamross/googledocs/internal/config"
	"github.com/noamross/googledocs/sdk/docs"
	log "github.com/sirupsen/logrus"
)

// DoGet fetches a document and prints its metadata and plain text.
func DoGet(cfg *config.Config, documentID string) {
	state := buildState(cfg)
	client, closeCache := buildClient(cfg, state)
	defer closeCache()

	doc, err := client.Get(context.Background(), documentID)
	if err != nil {
		log.Fatalf("failed to get document: %v", err)
	}

	fmt.Printf("title:    %s\n", doc.Title)
	fmt.Printf("id:       %s\n", doc.DocumentID)
	fmt.Printf("revision: %s\n", doc.RevisionID)
	if text := doc.PlainText(); text != "" {
		fmt.Printf("\n%s", text)
	}
}

// DoCreate creates a blank document with the given title.
func DoCreate(cfg *config.Config, title string) {
	state := buildState(cfg)
	client, closeCache := buildClient(cfg, state)
	defer closeCache()

	doc, err := client.Create(context.Background(), title)
	if err != nil {
		log.Fatalf("failed to create document: %v", err)
	}
	log.Infof("Created document %q: %s", doc.Title, doc.DocumentID)
	fmt.Printf("https://docs.google.com/document/d/%s/edit\n", doc.DocumentID)
}

// DoAppend appends text to the end of a document body.
func DoAppend(cfg *config.Config, documentID, text string) {
	if text == "" {
		log.Fatal("nothing to append: -text is empty")
	}

	state := buildState(cfg)
	client, closeCache := buildClient(cfg, state)
	defer closeCache()

	result, err := client.BatchUpdate(context.Background(), documentID, docs.InsertTextAtEndRequest(text))
	if err != nil {
		log.Fatalf("failed to append to document: %v", err)
	}
	log.Infof("Appended %d characters to %s", len(text), result.DocumentID)
}
