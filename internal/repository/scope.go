package repository

import "gorm.io/gorm"

// OwnerScope 归属范围
// 普通账号只能看到 owner_id 等于自身的数据，
// 持有 view_all 能力的账号可查看全部租户的数据。
type OwnerScope struct {
	OwnerID uint
	ViewAll bool
}

// ScopeForOwner 构建仅限本人数据的归属范围
func ScopeForOwner(ownerID uint) OwnerScope {
	return OwnerScope{OwnerID: ownerID}
}

// ScopeForAll 构建跨租户的归属范围
func ScopeForAll() OwnerScope {
	return OwnerScope{ViewAll: true}
}

// Apply 将归属范围应用到查询上
// 所有按归属过滤的仓库查询都必须经过这里，避免各处散落 owner_id 条件。
func (s OwnerScope) Apply(query *gorm.DB) *gorm.DB {
	if query == nil || s.ViewAll {
		return query
	}
	return query.Where("owner_id = ?", s.OwnerID)
}
