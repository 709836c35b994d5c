// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package generation

import (
	"fmt"
	"strings"
)

// generationPrompt asks for count new party-game questions in the given
// category, French first with en/de translations, as a bare JSON array.
func generationPrompt(category string, count int) string {
	return fmt.Sprintf(`Tu es un assistant créatif pour le jeu WITM ("Who Is The Most" / "Qui est le plus").
Ce jeu est un jeu de soirée où les joueurs votent pour la personne qui correspond le mieux à une question du type "Qui est le plus susceptible de...".

Génère %d questions originales, amusantes et engageantes pour la catégorie "%s".

IMPORTANT:
- Les questions doivent commencer par "Qui est le plus" ou "Qui serait le plus" en français
- Elles doivent être appropriées pour un jeu entre amis (18+) mais pas vulgaires
- Elles doivent être amusantes et provoquer des discussions
- Fournis les traductions en anglais et allemand

Retourne UNIQUEMENT un tableau JSON valide avec ce format exact (pas de texte avant ou après):
[
  {
    "fr": "Qui est le plus susceptible de...",
    "en": "Who is most likely to...",
    "de": "Wer wird am ehesten..."
  }
]`, count, category)
}

// translationPrompt asks for a single question translated into the
// target languages, as a bare JSON object keyed by language code.
func translationPrompt(text string, targetLanguages []string) string {
	return fmt.Sprintf(`Translate the following question for the party game "Who Is The Most" into %s.
The question should maintain the same meaning and tone, starting with the appropriate phrase in each language:
- French: "Qui est le plus..."
- English: "Who is most likely to..."
- German: "Wer wird am ehesten..."

Original text: "%s"

Respond ONLY with a JSON object in this exact format (no additional text):
{
  "en": "English translation",
  "fr": "French translation",
  "de": "German translation"
}`, strings.Join(targetLanguages, ", "), text)
}
