package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/intelink/console/internal/accesscontrol"
	"github.com/intelink/console/internal/models"
)

func setupPresetDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AccessPreset{}, &models.StoredSession{}))
	return db
}

func rulesJSON(t *testing.T, rules ...models.IPRangeRule) string {
	t.Helper()
	raw, err := json.Marshal(rules)
	require.NoError(t, err)
	return string(raw)
}

func TestAccessPresetService_Create(t *testing.T) {
	db := setupPresetDB(t)
	service := NewAccessPresetService(db)

	t.Run("allow list with IP rules", func(t *testing.T) {
		p := &models.AccessPreset{
			Name: "  Office  ",
			Mode: "allow",
			IPRules: rulesJSON(t,
				models.IPRangeRule{CIDR: "192.168.1.0/24", Description: "HQ"},
				models.IPRangeRule{CIDR: " 10.0.0.1 "},
			),
		}
		require.NoError(t, service.Create(p))
		assert.NotEmpty(t, p.UUID)
		assert.NotZero(t, p.ID)
		assert.Equal(t, "Office", p.Name)
		assert.Equal(t, "ALLOW", p.Mode)

		var rules []models.IPRangeRule
		require.NoError(t, json.Unmarshal([]byte(p.IPRules), &rules))
		assert.Equal(t, []models.IPRangeRule{{CIDR: "192.168.1.0/24", Description: "HQ"}, {CIDR: "10.0.0.1"}}, rules)
	})

	t.Run("countries are normalized and deduplicated", func(t *testing.T) {
		p := &models.AccessPreset{Name: "Geo", Mode: "BLOCK", Countries: "ru, RU ,kp"}
		require.NoError(t, service.Create(p))
		assert.Equal(t, "RU,KP", p.Countries)
		assert.Equal(t, "[]", p.IPRules)
	})

	t.Run("validation failures", func(t *testing.T) {
		tests := []struct {
			name   string
			preset models.AccessPreset
			err    error
		}{
			{"missing name", models.AccessPreset{Mode: "ALLOW", Countries: "US"}, ErrPresetNameRequired},
			{"bad mode", models.AccessPreset{Name: "x", Mode: "whitelist", Countries: "US"}, ErrInvalidPresetMode},
			{"none mode", models.AccessPreset{Name: "x", Mode: "NONE", Countries: "US"}, ErrInvalidPresetMode},
			{"unknown country", models.AccessPreset{Name: "x", Mode: "ALLOW", Countries: "XX"}, ErrInvalidPresetRule},
			{"bad cidr", models.AccessPreset{Name: "x", Mode: "ALLOW", IPRules: `[{"cidr":"10.0.0.0/33"}]`}, ErrInvalidPresetRule},
			{"duplicate cidr", models.AccessPreset{Name: "x", Mode: "ALLOW", IPRules: `[{"cidr":"10.0.0.0/8"},{"cidr":"10.0.0.0/8"}]`}, ErrInvalidPresetRule},
			{"nothing restricted", models.AccessPreset{Name: "x", Mode: "ALLOW"}, ErrPresetEmpty},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				p := tt.preset
				assert.ErrorIs(t, service.Create(&p), tt.err)
			})
		}
	})

	t.Run("malformed rules JSON", func(t *testing.T) {
		err := service.Create(&models.AccessPreset{Name: "x", Mode: "ALLOW", IPRules: "{"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid IP rules JSON")
	})
}

func TestAccessPresetService_CRUD(t *testing.T) {
	db := setupPresetDB(t)
	service := NewAccessPresetService(db)

	p := &models.AccessPreset{Name: "US", Mode: "ALLOW", Countries: "US"}
	require.NoError(t, service.Create(p))

	got, err := service.GetByUUID(p.UUID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	updated, err := service.Update(p.ID, &models.AccessPreset{Name: "North America", Mode: "ALLOW", Countries: "US,CA,MX"})
	require.NoError(t, err)
	assert.Equal(t, "US,CA,MX", updated.Countries)
	assert.Equal(t, p.UUID, updated.UUID)

	_, err = service.Update(p.ID, &models.AccessPreset{Name: "", Mode: "ALLOW", Countries: "US"})
	assert.ErrorIs(t, err, ErrPresetNameRequired)

	list, err := service.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "North America", list[0].Name)

	require.NoError(t, service.Delete(p.ID))
	assert.ErrorIs(t, service.Delete(p.ID), ErrPresetNotFound)
	_, err = service.GetByID(p.ID)
	assert.ErrorIs(t, err, ErrPresetNotFound)
	_, err = service.GetByUUID("missing")
	assert.ErrorIs(t, err, ErrPresetNotFound)
	_, err = service.Update(999, &models.AccessPreset{Name: "x"})
	assert.ErrorIs(t, err, ErrPresetNotFound)
}

func TestAccessPresetService_Templates(t *testing.T) {
	db := setupPresetDB(t)
	service := NewAccessPresetService(db)

	templates := service.Templates()
	require.NotEmpty(t, templates)
	for _, tmpl := range templates {
		t.Run(tmpl.ID, func(t *testing.T) {
			p, err := service.CreateFromTemplate(tmpl.ID, "")
			require.NoError(t, err)
			assert.Equal(t, tmpl.Name, p.Name)
			assert.Equal(t, tmpl.Category, p.Category)
		})
	}

	p, err := service.CreateFromTemplate("us-only", "Launch campaign")
	require.NoError(t, err)
	assert.Equal(t, "Launch campaign", p.Name)

	_, err = service.CreateFromTemplate("nope", "")
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	templates[0].Name = "mutated"
	assert.NotEqual(t, "mutated", service.Templates()[0].Name)
}

func TestAccessPresetService_Evaluate(t *testing.T) {
	db := setupPresetDB(t)
	service := NewAccessPresetService(db)

	p, err := service.CreateFromTemplate("local-network", "")
	require.NoError(t, err)

	d, err := service.Evaluate(p.ID, "192.168.4.20", "")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, "Allowed by whitelist rule: 192.168.0.0/16", d.Reason)

	d, err = service.Evaluate(p.ID, "8.8.8.8", "US")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, "Not in whitelist", d.Reason)

	_, err = service.Evaluate(p.ID, "", "")
	assert.ErrorIs(t, err, accesscontrol.ErrNoVisitor)
	_, err = service.Evaluate(404, "8.8.8.8", "")
	assert.ErrorIs(t, err, ErrPresetNotFound)
}

func TestPresetDataRoundTrip(t *testing.T) {
	in := accesscontrol.Data{Mode: accesscontrol.ModeBlock, Countries: []string{"CN"}, IPRanges: []string{"203.0.113.0/24"}}
	p, err := PresetFromData("x", in)
	require.NoError(t, err)

	out, err := PresetData(p)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
