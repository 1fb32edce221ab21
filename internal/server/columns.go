package server

import "github.com/orvull/omnisia-admin-console/internal/models"

var roleLabels = map[string]map[string]string{
	"es": {
		"id":           "ID",
		"name":         "Nombre",
		"description":  "Descripción",
		"isSystemRole": "Rol del sistema",
		"createdAt":    "Creado",
		"updatedAt":    "Actualizado",
	},
	"en": {
		"id":           "ID",
		"name":         "Name",
		"description":  "Description",
		"isSystemRole": "System role",
		"createdAt":    "Created",
		"updatedAt":    "Updated",
	},
}

func flag(b bool) *bool { return &b }

// roleColumns is the column list sent with include=columns, labelled in
// lang.
func roleColumns(lang string) []models.ColumnSpec {
	labels := roleLabels[lang]
	return []models.ColumnSpec{
		{Key: "id", Label: labels["id"], LabelKey: "roles.columns.id", Visible: flag(false)},
		{Key: "name", Label: labels["name"], LabelKey: "roles.columns.name", Type: models.ColumnText},
		{Key: "description", Label: labels["description"], LabelKey: "roles.columns.description", Sortable: flag(false), Type: models.ColumnText},
		{Key: "isSystemRole", Label: labels["isSystemRole"], LabelKey: "roles.columns.isSystemRole", Type: models.ColumnBool},
		{Key: "createdAt", Label: labels["createdAt"], LabelKey: "roles.columns.createdAt", Type: models.ColumnDate, Format: "yyyy/MM/dd"},
	}
}
