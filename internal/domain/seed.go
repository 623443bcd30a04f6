package domain

const (
	DefaultAdminID       = "admin-default"
	DefaultAdminName     = "Administrador"
	DefaultAdminPassword = "admin"
)

// DefaultAppData is the aggregate written on first run: one administrator
// with the well-known default password and no content.
func DefaultAppData() AppData {
	return AppData{
		Themes:    []Theme{},
		Quizzes:   []Quiz{},
		Questions: []Question{},
		Results:   []UserResult{},
		Users: []User{
			{
				ID:       DefaultAdminID,
				Name:     DefaultAdminName,
				Role:     RoleAdmin,
				Password: DefaultAdminPassword,
			},
		},
	}
}
