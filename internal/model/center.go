package model

type Center struct {
	Base
	Name     string `db:"name" json:"name"`
	Location string `db:"location" json:"location"`
	Status   string `db:"status" json:"status"`
}
