// Package speller is a client for Yandex Speller compatible spell-check
// services.
//
// The service receives a text and returns the misspelled words it found,
// each with its position and a list of suggestions:
//
//	client := speller.New(speller.WithLang("ru"))
//	fixed, err := client.Correct(ctx, "Масква")
//	// fixed == "Москва"
package speller
