package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type seedCategory struct {
	name, slug, icon string
	children         []seedCategory
}

// rootTaxonomy is the starter category tree. Admins can edit or extend it.
var rootTaxonomy = []seedCategory{
	{name: "Plumbing", slug: "plumbing", icon: "wrench", children: []seedCategory{
		{name: "Drain Cleaning", slug: "drain-cleaning"},
		{name: "Water Heaters", slug: "water-heaters"},
	}},
	{name: "Electrical", slug: "electrical", icon: "bolt", children: []seedCategory{
		{name: "Panel Upgrades", slug: "panel-upgrades"},
		{name: "Lighting", slug: "lighting"},
	}},
	{name: "HVAC", slug: "hvac", icon: "fan", children: []seedCategory{
		{name: "AC Repair", slug: "ac-repair"},
	}},
	{name: "Roofing", slug: "roofing", icon: "home"},
	{name: "Moving", slug: "moving", icon: "truck"},
	{name: "Landscaping", slug: "landscaping", icon: "leaf", children: []seedCategory{
		{name: "Lawn Care", slug: "lawn-care"},
		{name: "Tree Service", slug: "tree-service"},
	}},
}

// Seed populates the database with the starter category taxonomy and, when
// adminEmail and adminPassword are both set, an admin account. It is safe
// to call repeatedly. The admin is prompted to set up 2FA on first login.
func Seed(db *sql.DB, adminEmail, adminPassword string) error {
	for i, root := range rootTaxonomy {
		var rootID string
		err := db.QueryRow(`
			INSERT INTO categories (name, slug, icon, level, sort_order)
			VALUES ($1, $2, $3, 'PRIMARY', $4)
			ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
			RETURNING id
		`, root.name, root.slug, root.icon, i).Scan(&rootID)
		if err != nil {
			return fmt.Errorf("seed category %s: %w", root.slug, err)
		}

		for j, child := range root.children {
			_, err := db.Exec(`
				INSERT INTO categories (name, slug, icon, level, parent_id, sort_order)
				VALUES ($1, $2, $3, 'SECONDARY', $4, $5)
				ON CONFLICT (slug) DO NOTHING
			`, child.name, child.slug, child.icon, rootID, j)
			if err != nil {
				return fmt.Errorf("seed category %s: %w", child.slug, err)
			}
		}
	}
	slog.Info("category taxonomy seeded", "roots", len(rootTaxonomy))

	if adminEmail == "" || adminPassword == "" {
		slog.Info("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	var exists bool
	if err := db.QueryRow(
		"SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))", adminEmail,
	).Scan(&exists); err != nil {
		return fmt.Errorf("seed check admin: %w", err)
	}
	if exists {
		slog.Info("admin user already present, skipping", "email", adminEmail)
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	// 2FA is not enabled; the admin must set it up on first login.
	_, err = db.Exec(`
		INSERT INTO users (email, password_hash, name, role, totp_enabled)
		VALUES ($1, $2, $3, 'ADMIN', FALSE)
	`, strings.ToLower(strings.TrimSpace(adminEmail)), string(hash), "Admin")
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	slog.Info("admin user seeded", "email", adminEmail)
	return nil
}
