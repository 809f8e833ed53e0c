package handlers

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/afgc/registry/internal/model"
)

// loadDocument reads and parses the currently published registry artifact.
// The artifact on disk is the source of truth, so it is re-read per request;
// a publish that happens while the server runs is picked up immediately.
func loadDocument(path string) (*model.RegistryDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc model.RegistryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	return &doc, nil
}

// RegistryHandler serves the raw registry artifact
func RegistryHandler(outputDir, artifactName string) fiber.Handler {
	path := filepath.Join(outputDir, artifactName)
	return func(c *fiber.Ctx) error {
		if _, err := os.Stat(path); err != nil {
			return c.Status(fiber.StatusNotFound).SendString("Registry not published yet")
		}
		c.Set("Content-Type", "application/json")
		return c.SendFile(path)
	}
}

// SchemaHandler serves the schema copy published next to the artifact
func SchemaHandler(outputDir, schemaName string) fiber.Handler {
	path := filepath.Join(outputDir, schemaName)
	return func(c *fiber.Ctx) error {
		if _, err := os.Stat(path); err != nil {
			return c.Status(fiber.StatusNotFound).SendString("Schema not published yet")
		}
		c.Set("Content-Type", "application/json")
		return c.SendFile(path)
	}
}

// EntriesHandler returns the entry list from the published artifact
func EntriesHandler(outputDir, artifactName string) fiber.Handler {
	path := filepath.Join(outputDir, artifactName)
	return func(c *fiber.Ctx) error {
		doc, err := loadDocument(path)
		if err != nil {
			if os.IsNotExist(err) {
				return c.Status(fiber.StatusNotFound).SendString("Registry not published yet")
			}
			return c.Status(fiber.StatusInternalServerError).SendString("Error loading registry")
		}
		return c.JSON(doc.Entries)
	}
}

// EntryDetailHandler returns one entry by certification ID. Duplicate IDs are
// possible in the published set; the first in sort order wins here.
func EntryDetailHandler(outputDir, artifactName string) fiber.Handler {
	path := filepath.Join(outputDir, artifactName)
	return func(c *fiber.Ctx) error {
		doc, err := loadDocument(path)
		if err != nil {
			if os.IsNotExist(err) {
				return c.Status(fiber.StatusNotFound).SendString("Registry not published yet")
			}
			return c.Status(fiber.StatusInternalServerError).SendString("Error loading registry")
		}

		id := c.Params("id")
		for _, entry := range doc.Entries {
			if entry.CertificationID == id {
				return c.JSON(entry)
			}
		}

		return c.Status(fiber.StatusNotFound).SendString("Entry not found")
	}
}
