// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type seedQuestion struct {
	fr string
	en string
	de string
}

var seedCategories = []UpsertCategoryParams{
	{ID: "wtf", Title: "WTF", Icon: "🎲", SortOrder: 1},
	{ID: "friends", Title: "Amis", Icon: "👬", SortOrder: 2},
	{ID: "family", Title: "Famille", Icon: "👨‍👩‍👧", SortOrder: 3},
	{ID: "job", Title: "Job", Icon: "💼", SortOrder: 4},
	{ID: "hot", Title: "Hot", Icon: "🥵", SortOrder: 5},
	{ID: "problemes", Title: "Problèmes", Icon: "🥊", SortOrder: 6},
	{ID: "normal", Title: "Normal", Icon: "❔", SortOrder: 7},
}

// Starter questions, French first with en/de translations.
var seedQuestions = map[string][]seedQuestion{
	"wtf": {
		{
			fr: "Qui est le plus susceptible de parler tout seul dans la rue ?",
			en: "Who is most likely to talk to themselves in the street?",
			de: "Wer würde am ehesten auf der Straße Selbstgespräche führen?",
		},
		{
			fr: "Qui est le plus susceptible de survivre à une apocalypse zombie ?",
			en: "Who is most likely to survive a zombie apocalypse?",
			de: "Wer würde am ehesten eine Zombie-Apokalypse überleben?",
		},
		{
			fr: "Qui est le plus susceptible de devenir viral sur TikTok par accident ?",
			en: "Who is most likely to accidentally go viral on TikTok?",
			de: "Wer würde am ehesten aus Versehen auf TikTok viral gehen?",
		},
	},
	"friends": {
		{
			fr: "Qui est le plus susceptible d'oublier l'anniversaire d'un ami ?",
			en: "Who is most likely to forget a friend's birthday?",
			de: "Wer würde am ehesten den Geburtstag eines Freundes vergessen?",
		},
		{
			fr: "Qui est le plus susceptible d'organiser la meilleure soirée de l'année ?",
			en: "Who is most likely to throw the best party of the year?",
			de: "Wer würde am ehesten die beste Party des Jahres veranstalten?",
		},
		{
			fr: "Qui est le plus susceptible de raconter un secret par accident ?",
			en: "Who is most likely to accidentally spill a secret?",
			de: "Wer würde am ehesten aus Versehen ein Geheimnis verraten?",
		},
	},
	"family": {
		{
			fr: "Qui est le plus susceptible de devenir le préféré de la famille ?",
			en: "Who is most likely to become the family favorite?",
			de: "Wer würde am ehesten zum Liebling der Familie werden?",
		},
		{
			fr: "Qui est le plus susceptible de ruiner le dîner de Noël ?",
			en: "Who is most likely to ruin Christmas dinner?",
			de: "Wer würde am ehesten das Weihnachtsessen ruinieren?",
		},
	},
	"job": {
		{
			fr: "Qui est le plus susceptible de s'endormir en réunion ?",
			en: "Who is most likely to fall asleep in a meeting?",
			de: "Wer würde am ehesten in einer Besprechung einschlafen?",
		},
		{
			fr: "Qui est le plus susceptible de devenir le patron de tout le monde ?",
			en: "Who is most likely to become everyone's boss?",
			de: "Wer würde am ehesten der Chef von allen werden?",
		},
	},
	"hot": {
		{
			fr: "Qui est le plus susceptible d'envoyer un message à son ex après minuit ?",
			en: "Who is most likely to text their ex after midnight?",
			de: "Wer würde am ehesten nach Mitternacht dem Ex schreiben?",
		},
	},
	"problemes": {
		{
			fr: "Qui est le plus susceptible de se disputer pour choisir un restaurant ?",
			en: "Who is most likely to argue about choosing a restaurant?",
			de: "Wer würde am ehesten über die Restaurantwahl streiten?",
		},
	},
	"normal": {
		{
			fr: "Qui est le plus susceptible de chanter sous la douche à tue-tête ?",
			en: "Who is most likely to sing loudly in the shower?",
			de: "Wer würde am ehesten laut unter der Dusche singen?",
		},
	},
}

// SeedCounts returns how many categories and questions a seed run
// inserts into an empty database.
func SeedCounts() (categories, questions int) {
	categories = len(seedCategories)
	for _, qs := range seedQuestions {
		questions += len(qs)
	}
	return categories, questions
}

// Seed creates the default categories and starter questions. It is a
// no-op when questions already exist.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	var count int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&count); err != nil {
		return fmt.Errorf("counting questions: %w", err)
	}
	if count > 0 {
		slog.Info("questions already present, skipping seed", "count", count)
		return nil
	}

	for _, cat := range seedCategories {
		if err := queries.UpsertCategory(ctx, cat); err != nil {
			return fmt.Errorf("seeding category %s: %w", cat.ID, err)
		}
	}

	now := time.Now().UTC()
	seeded := 0
	for categoryID, questions := range seedQuestions {
		for _, sq := range questions {
			err := queries.CreateQuestion(ctx, CreateQuestionParams{
				ID:   uuid.NewString(),
				Text: sq.fr,
				Translations: map[string]string{
					"fr": sq.fr,
					"en": sq.en,
					"de": sq.de,
				},
				CategoryID: categoryID,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
			if err != nil {
				return fmt.Errorf("seeding question in %s: %w", categoryID, err)
			}
			seeded++
		}
	}

	slog.Info("seeded starter data",
		"categories", len(seedCategories),
		"questions", seeded,
	)
	return nil
}
