package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOperationSet_CanonicalOrder(t *testing.T) {
	set := NewOperationSet(OpDelete, OpList, OpCreate, OpList)
	assert.Equal(t, OperationSet{OpList, OpCreate, OpDelete}, set)
	assert.True(t, set.Has(OpCreate))
	assert.False(t, set.Has(OpUpdate))
	assert.Equal(t, []string{"list", "create", "delete"}, set.Strings())
}

func TestOperation_ItemLevel(t *testing.T) {
	assert.False(t, OpList.ItemLevel())
	assert.False(t, OpCreate.ItemLevel())
	assert.True(t, OpRetrieve.ItemLevel())
	assert.True(t, OpUpdate.ItemLevel())
	assert.True(t, OpDelete.ItemLevel())
	assert.False(t, Operation("patch").Valid())
}

func TestModelDescriptor_CloneIsDeep(t *testing.T) {
	def := "true"
	m := ModelDescriptor{
		Name:       "User",
		PrimaryKey: "id",
		Fields: []FieldDescriptor{
			{Name: "id", SourceType: SourceInt, PrimaryKey: true},
			{Name: "is_active", SourceType: SourceBool, Default: &def, HasDefault: true},
			{Name: "role", SourceType: SourceEnum, Choices: []string{"admin", "staff"}},
		},
	}

	c := m.Clone()
	c.Fields[0].Name = "pk"
	*c.Fields[1].Default = "false"
	c.Fields[2].Choices[0] = "root"

	assert.Equal(t, "id", m.Fields[0].Name)
	assert.Equal(t, "true", *m.Fields[1].Default)
	assert.Equal(t, "admin", m.Fields[2].Choices[0])

	pk, ok := m.PrimaryKeyField()
	require.True(t, ok)
	assert.Equal(t, SourceInt, pk.SourceType)
	assert.Equal(t, []string{"id", "is_active", "role"}, m.FieldNames())
}

func TestFieldDescriptor_Recognized(t *testing.T) {
	assert.True(t, FieldDescriptor{Name: "a", SourceType: SourceString}.Recognized())
	assert.False(t, FieldDescriptor{Name: "a", SourceType: SourceUnknown}.Recognized())
	assert.False(t, FieldDescriptor{Name: "a", SourceType: SourceString, Reason: "source= remap"}.Recognized())
	assert.True(t, FieldDescriptor{Nullable: true}.Optional())
	assert.True(t, RelationManyToMany.Many())
	assert.False(t, RelationManyToOne.Many())
}

func TestLegacyConstruct_AllFields(t *testing.T) {
	c := LegacyConstructDescriptor{FieldNames: []string{"__all__"}}
	assert.True(t, c.AllFields())

	c.FieldNames = []string{"id", "email"}
	assert.False(t, c.AllFields())
}
