// Package goopenai implements ai.AIProvider on top of the
// github.com/sashabaranov/go-openai client.
//
// Unlike the langchaingo-backed package it sees typed API errors, so rate
// limits are detected from the HTTP status code rather than error text.
package goopenai
