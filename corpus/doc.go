// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package corpus reads the article corpus that the semantic index is built over.
//
// Corpora are tables with one article per row. Column names may be the
// English snake_case names (main_category, example_question, ...) or the
// Russian headers used by the support team's spreadsheets (Основная
// категория, Пример вопроса, ...). Supported formats are selected by file
// extension: .csv, .xlsx, .json and .yaml/.yml.
//
// Missing values fall back to defaults: category "Другое", priority
// "Средний", audience "Все" and, for the id, the 1-based row number.
//
//	articles, err := corpus.Load("data/knowledge_base.xlsx")
//	if errors.Is(err, core.ErrDataLoad) {
//	    // serve with an empty index
//	}
package corpus
