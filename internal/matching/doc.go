// Package matching resolves human-entered file names against a live listing
// of candidate names.
//
// The resolver scores every candidate with a blended similarity metric,
// filters and ranks the results, and clusters matches whose scores are too
// close to distinguish into duplicate groups. Queries may carry a trailing
// disambiguation index ("Report [2]", "Report #2", "Report (2)") which the
// parser strips before scoring.
//
// Selection strategies turn a ranked result into a single pick: first match,
// explicit index, newest/oldest/largest by side metadata, or "ask" which
// signals the caller to prompt the user. All functions are pure and reentrant;
// the package holds no state between calls and never dereferences candidate
// handles.
package matching
