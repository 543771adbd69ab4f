package db

import "testing"

func TestOpen_EmptyDSN(t *testing.T) {
	db, err := Open("")
	if err == nil {
		if db != nil {
			db.Close()
		}
		t.Fatal("Open with empty DSN should return error")
	}
	if db != nil {
		t.Error("Open should return nil db when error occurs")
	}
}
