/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package beanconf_test

import (
	"context"
	"fmt"
	"github.com/codeallergy/beanconf"
	"github.com/cucumber/godog"
	"strings"
	"testing"
)

type containerFeature struct {
	ctx          beanconf.Context
	err          error
	obj          interface{}
	remembered   interface{}
	conversation *beanconf.ConversationScope
}

func (t *containerFeature) build(scan ...interface{}) error {
	t.ctx, t.err = beanconf.New(scan...)
	return nil
}

func (t *containerFeature) infraAndRepo() error {
	return t.build(newInfra(), newRepo())
}

func (t *containerFeature) repoOnly() error {
	return t.build(newRepo())
}

func (t *containerFeature) cyclicUnit() error {
	return t.build(newCycle())
}

func (t *containerFeature) lifecycleUnit() error {
	return t.build(newLifecycle())
}

func (t *containerFeature) cartWithConversation() error {
	t.conversation = beanconf.NewConversationScope()
	return t.build(beanconf.ScopeBinding{Name: "conversation", Scope: t.conversation}, newCartConfig())
}

func (t *containerFeature) resolve(name string) error {
	if t.err != nil {
		return t.err
	}
	t.obj, t.err = t.ctx.GetObject(name)
	return t.err
}

func (t *containerFeature) tryResolve(name string) error {
	if t.ctx == nil {
		return fmt.Errorf("context was not built, %v", t.err)
	}
	t.obj, t.err = t.ctx.GetObject(name)
	return nil
}

func (t *containerFeature) repositoryUsesDataSource() error {
	repo, err := beanconf.Get[*repository](t.ctx, "repository")
	if err != nil {
		return err
	}
	if interface{}(repo.ds) != t.obj {
		return fmt.Errorf("repository uses %p, resolved %p", repo.ds, t.obj)
	}
	return nil
}

func (t *containerFeature) listsRecipes(list string) error {
	names := t.ctx.RecipeNames()
	for _, expected := range strings.Split(list, ",") {
		expected = strings.TrimSpace(expected)
		found := false
		for _, name := range names {
			if name == expected {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("recipe '%s' is not listed in %v", expected, names)
		}
	}
	return nil
}

func (t *containerFeature) failsWith(msg string) error {
	if t.err == nil {
		return fmt.Errorf("expected error with '%s'", msg)
	}
	if !strings.Contains(t.err.Error(), msg) {
		return fmt.Errorf("error '%v' does not contain '%s'", t.err, msg)
	}
	return nil
}

func (t *containerFeature) stateIs(name, state string) error {
	st, ok := t.ctx.Lifecycle(name)
	if !ok {
		return fmt.Errorf("recipe '%s' not found", name)
	}
	if st.String() != state {
		return fmt.Errorf("recipe '%s' is in state %s, expected %s", name, st, state)
	}
	return nil
}

func (t *containerFeature) closeContext() error {
	return t.ctx.Close()
}

func (t *containerFeature) remember() error {
	t.remembered = t.obj
	return nil
}

func (t *containerFeature) isRemembered() error {
	if t.obj != t.remembered {
		return fmt.Errorf("object %p is not the remembered %p", t.obj, t.remembered)
	}
	return nil
}

func (t *containerFeature) isNotRemembered() error {
	if t.obj == t.remembered {
		return fmt.Errorf("object %p is still the remembered one", t.obj)
	}
	return nil
}

func (t *containerFeature) resetConversation() error {
	t.conversation.Reset()
	return nil
}

func TestContainerFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			feature := &containerFeature{}

			ctx.Step(`^a context built from the infrastructure and repository units$`, feature.infraAndRepo)
			ctx.Step(`^a context built from the repository unit only$`, feature.repoOnly)
			ctx.Step(`^a context built from the cyclic unit$`, feature.cyclicUnit)
			ctx.Step(`^a context built from the lifecycle unit$`, feature.lifecycleUnit)
			ctx.Step(`^a context with a conversation scope and the cart unit$`, feature.cartWithConversation)

			ctx.Step(`^I resolve "([^"]*)"$`, feature.resolve)
			ctx.Step(`^I try to resolve "([^"]*)"$`, feature.tryResolve)
			ctx.Step(`^I close the context$`, feature.closeContext)
			ctx.Step(`^I remember the object$`, feature.remember)
			ctx.Step(`^the conversation is reset$`, feature.resetConversation)

			ctx.Step(`^the repository uses the resolved data source$`, feature.repositoryUsesDataSource)
			ctx.Step(`^the context lists recipes "([^"]*)"$`, feature.listsRecipes)
			ctx.Step(`^the build fails with "([^"]*)"$`, feature.failsWith)
			ctx.Step(`^the resolution fails with "([^"]*)"$`, feature.failsWith)
			ctx.Step(`^the recipe "([^"]*)" is in state "([^"]*)"$`, feature.stateIs)
			ctx.Step(`^the object is the remembered one$`, feature.isRemembered)
			ctx.Step(`^the object is not the remembered one$`, feature.isNotRemembered)

			ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
				if feature.ctx != nil {
					feature.ctx.Close()
				}
				return c, nil
			})
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
