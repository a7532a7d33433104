// Command flashdeck turns a Notion page into an Anki flashcard package.
package main
