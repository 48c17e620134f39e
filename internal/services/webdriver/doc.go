// Package webdriver implements the subset of the W3C WebDriver protocol the
// UI capture path needs: session lifecycle, navigation, element lookup by CSS
// selector or XPath, typing, clicking (including context clicks via the
// actions API), script execution, and viewport screenshots.
//
// It talks plain JSON over HTTP to a locally running driver such as
// chromedriver, so the capture workflow carries no browser automation
// framework dependency.
package webdriver
