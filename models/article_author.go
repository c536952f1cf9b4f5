package models

// ArticleAuthor links an article to one of its authors with a position in the
// author list. Order 0 is the first author.
type ArticleAuthor struct {
	ID uint `json:"id" gorm:"primaryKey"`

	ArticleID uint     `json:"article_id" gorm:"index:idx_article_author,unique;not null"`
	AuthorID  uint     `json:"author_id" gorm:"index:idx_article_author,unique;not null"`
	Author    *Author  `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Article   *Article `json:"-" gorm:"foreignKey:ArticleID"`

	Order           int    `json:"order" gorm:"column:author_order;default:0"`
	IsCorresponding bool   `json:"is_corresponding" gorm:"default:false"`
	Contribution    string `json:"contribution,omitempty" gorm:"type:text"`
}

func (ArticleAuthor) TableName() string { return "article_authors" }
