// Package state holds the pure viewport math for the feed list. Keeping it
// free of bubbletea types makes the scroll geometry testable on its own.
package state

import "github.com/OneVth/prj-board/internal/board"

func ClampCursor(cursor, size int) int {
	if size <= 0 {
		return 0
	}
	if cursor >= size {
		return size - 1
	}
	if cursor < 0 {
		return 0
	}
	return cursor
}

func PageStep(height int, hasStatus bool) int {
	if height <= 0 {
		return 10
	}
	headerLines := 6
	if hasStatus {
		headerLines += 2
	}
	step := height - headerLines
	if step < 3 {
		step = 3
	}
	return step
}

// CenteredWindow returns the half-open row range [start, end) that keeps
// the cursor near the middle of a viewport of the given height.
func CenteredWindow(totalRows, cursor, height int) (int, int) {
	if totalRows <= 0 {
		return 0, 0
	}
	if height <= 0 || totalRows <= height {
		return 0, totalRows
	}
	cursor = ClampCursor(cursor, totalRows)
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	maxStart := totalRows - height
	if start > maxStart {
		start = maxStart
	}
	return start, start + height
}

// MarkerVisible reports whether the trailing boundary row, which sits after
// the last post at index totalRows-1, falls inside the centered window.
// This is the visibility signal the load-more sentinel consumes.
func MarkerVisible(totalRows, cursor, height int) bool {
	if totalRows <= 0 {
		return false
	}
	_, end := CenteredWindow(totalRows, cursor, height)
	return end >= totalRows
}

func PostIndexByID(posts []board.Post, id string) int {
	for i, post := range posts {
		if post.ID == id {
			return i
		}
	}
	return -1
}
